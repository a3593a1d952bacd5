package ctxutil

import (
	"context"
	"testing"
)

func TestContextData(t *testing.T) {
	ctx := context.Background()
	if GetTraceData(ctx) != nil || GetSessionData(ctx) != nil {
		t.Fatalf("empty context should carry nothing")
	}
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t", RequestID: "r"})
	ctx = WithSessionData(ctx, &SessionData{UserID: "u-1", Epoch: 3})
	if td := GetTraceData(ctx); td == nil || td.RequestID != "r" {
		t.Fatalf("trace data: %+v", td)
	}
	if sd := GetSessionData(ctx); sd == nil || sd.Epoch != 3 {
		t.Fatalf("session data: %+v", sd)
	}
}
