package repository

import (
	"math"
	"testing"
	"time"
)

func TestResolveRefundAmount(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		want float64
	}{
		{"explicit amount", map[string]interface{}{"amount": 120.0, "requestedRefundAmount": 80.0, "originalAmount": 400.0}, 120},
		{"zero amount is present", map[string]interface{}{"amount": 0.0, "originalAmount": 400.0}, 0},
		{"requested amount", map[string]interface{}{"requestedRefundAmount": 80.0, "originalAmount": 400.0}, 80},
		{"half of original", map[string]interface{}{"originalAmount": 200.0}, 100},
		{"non numeric amount ignored", map[string]interface{}{"amount": "120", "originalAmount": 300.0}, 150},
		{"NaN ignored", map[string]interface{}{"amount": math.NaN(), "requestedRefundAmount": 10}, 10},
		{"nothing", map[string]interface{}{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRefundAmount(tt.data)
			if got != tt.want {
				t.Errorf("ResolveRefundAmount() = %v, want %v", got, tt.want)
			}
			if math.IsNaN(got) {
				t.Error("amount must never be NaN")
			}
		})
	}
}

func TestCancellationRefundAmount(t *testing.T) {
	if got := CancellationRefundAmount(map[string]interface{}{"originalAmount": 600.0, "cancellationFee": 50.0}); got != 550 {
		t.Errorf("got %v, want 550", got)
	}
	if got := CancellationRefundAmount(map[string]interface{}{"originalAmount": 600.0, "cancellationFee": 50.0, "requestedRefundAmount": 300.0}); got != 300 {
		t.Errorf("got %v, want 300", got)
	}
	if got := CancellationRefundAmount(map[string]interface{}{"originalAmount": 30.0, "cancellationFee": 50.0}); got != -20 {
		t.Errorf("got %v, want -20", got)
	}
}

func TestResolveReason(t *testing.T) {
	tests := []struct {
		data map[string]interface{}
		want string
	}{
		{map[string]interface{}{"reason": "moved", "reasonsText": "other"}, "moved"},
		{map[string]interface{}{"reason": "", "reasonsText": "other"}, "other"},
		{map[string]interface{}{"reasons": []interface{}{"noisy", 3.0, "dirty"}}, "noisy, dirty"},
		{map[string]interface{}{}, ""},
	}
	for _, tt := range tests {
		if got := ResolveReason(tt.data); got != tt.want {
			t.Errorf("ResolveReason(%v) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	inputs := []interface{}{
		"2024-03-01T10:00:00Z",
		float64(want.UnixMilli()),
		map[string]interface{}{"seconds": float64(want.Unix()), "nanoseconds": 0.0},
	}
	for _, in := range inputs {
		got, ok := ParseTime(in)
		if !ok || !got.Equal(want) {
			t.Errorf("ParseTime(%v) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseTime("hier"); ok {
		t.Error("invalid string should not parse")
	}
}

func TestParseRef(t *testing.T) {
	ref, isRef, ok := ParseRef("users/u1")
	if !ok || !isRef || ref.Collection != "users" || ref.ID != "u1" {
		t.Errorf("path ref = %+v %v %v", ref, isRef, ok)
	}
	ref, isRef, ok = ParseRef(map[string]interface{}{"collection": "properties", "id": "p1"})
	if !ok || !isRef || ref.ID != "p1" {
		t.Errorf("object ref = %+v %v %v", ref, isRef, ok)
	}
	ref, isRef, ok = ParseRef("u2")
	if !ok || isRef || ref.ID != "u2" {
		t.Errorf("plain id = %+v %v %v", ref, isRef, ok)
	}
	if _, _, ok := ParseRef(42.0); ok {
		t.Error("number should not be a reference")
	}
}
