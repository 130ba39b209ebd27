package repository

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

// TestBuildAIRequestWhere проверяет нумерацию параметров фильтра.
func TestBuildAIRequestWhere(t *testing.T) {
	where, args := buildAIRequestWhere(AIRequestFilter{})
	if where != "" || len(args) != 0 {
		t.Fatalf("expected empty filter, got %q %v", where, args)
	}

	planID := uuid.New()
	success := false
	where, args = buildAIRequestWhere(AIRequestFilter{PlanID: &planID, Success: &success})

	if where != " WHERE plan_id = $1 AND success = $2" {
		t.Fatalf("unexpected where clause: %q", where)
	}
	if !reflect.DeepEqual(args, []interface{}{planID, false}) {
		t.Fatalf("unexpected args: %v", args)
	}
}
