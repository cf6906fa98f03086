package models

import (
	"strings"
	"testing"
	"time"
)

func TestDecodeMetaRejectsUnknownType(t *testing.T) {
	ev := RideEvent{ID: "e1", RideID: "r1", Type: "promo_applied", Meta: []byte(`{}`)}
	if _, err := DecodeMeta(ev); err == nil || !strings.Contains(err.Error(), "unknown event type") {
		t.Fatalf("err = %v, want unknown-type rejection", err)
	}
}

func TestDecodeMetaRoundTrip(t *testing.T) {
	meta := RideCancelledMeta{
		CancelledBy: "rider-1", CancelledByRole: RoleRider,
		Reason: "changed plans", Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	raw, err := EncodeMeta(meta)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMeta(RideEvent{Type: meta.EventType(), Meta: raw})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, ok := got.(*RideCancelledMeta)
	if !ok {
		t.Fatalf("decoded %T, want *RideCancelledMeta", got)
	}
	if *m != meta {
		t.Fatalf("got %+v, want %+v", *m, meta)
	}
}

func TestDecodeMetaRejectsMalformedPayload(t *testing.T) {
	ev := RideEvent{Type: EventSOS, Meta: []byte(`{"lat":`)}
	if _, err := DecodeMeta(ev); err == nil {
		t.Fatal("expected decode failure for truncated meta")
	}
}

func TestEventTypeKnown(t *testing.T) {
	for _, typ := range []EventType{
		EventRideRequested, EventDriverAssigned, EventStatusChanged,
		EventDriverLocation, EventRideCancelled, EventSOS,
	} {
		if !typ.Known() {
			t.Fatalf("%s must be known", typ)
		}
	}
	for _, typ := range []EventType{"", "promo_applied", "SOS"} {
		if typ.Known() {
			t.Fatalf("%q must not be known", typ)
		}
	}
}
