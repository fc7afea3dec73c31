package model

import (
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/google/uuid"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"Country", KindCountry},
		{"city", KindCity},
		{"PlaceAmenity", KindPlaceAmenity},
		{"place_amenity", KindPlaceAmenity},
		{" Review ", KindReview},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseKind("Booking"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func TestEveryKindHasAnEntity(t *testing.T) {
	for _, k := range Kinds() {
		e, err := New(k)
		if err != nil {
			t.Fatalf("New(%s): %v", k, err)
		}
		if e.Kind() != k {
			t.Fatalf("New(%s) returned a %s", k, e.Kind())
		}
	}
	if _, err := New(Kind(0)); err == nil {
		t.Fatalf("expected error for the zero kind")
	}
	if Kind(42).String() != "Kind(42)" {
		t.Fatalf("unexpected String for invalid kind: %s", Kind(42))
	}
}

func TestDecodePlaceDefaults(t *testing.T) {
	host, city := uuid.New(), uuid.New()

	e, err := Decode(KindPlace, map[string]any{
		"name":            "Loft",
		"host_id":         host.String(),
		"city_id":         city.String(),
		"price_per_night": "120",
		"latitude":        48.85,
		"max_guests":      float64(4),
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	place := e.(*Place)
	if place.Name != "Loft" || place.HostID != host || place.CityID != city {
		t.Fatalf("unexpected place: %+v", place)
	}
	if place.PricePerNight != 120 || place.MaxGuests != 4 || place.Latitude != 48.85 {
		t.Fatalf("numeric conversion failed: %+v", place)
	}
	if place.Description != "" || place.Address != "" || place.NumberOfRooms != 0 || place.Longitude != 0 {
		t.Fatalf("missing fields must default to zero values: %+v", place)
	}
	if err := Validate(place); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		payload map[string]any
	}{
		{"unknown key", KindCity, map[string]any{"name": "Paris", "mayor": "x"}},
		{"reserved id", KindCity, map[string]any{"id": uuid.NewString(), "name": "Paris"}},
		{"bad uuid", KindReview, map[string]any{"place_id": "not-a-uuid"}},
		{"secret field", KindUser, map[string]any{"password_hash": "x"}},
		{"bad number", KindPlace, map[string]any{"max_guests": "many"}},
		{"fractional rooms", KindPlace, map[string]any{"number_of_rooms": 2.7}},
		{"fractional negative guests", KindPlace, map[string]any{"max_guests": -1.9}},
		{"fractional price", KindPlace, map[string]any{"price_per_night": float32(100.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, tt.payload)
			if !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDecodeKeepsWholeFloatsAndFractionalRatings(t *testing.T) {
	e, err := Decode(KindPlace, map[string]any{"number_of_rooms": 3.0, "latitude": 10.5})
	if err != nil {
		t.Fatalf("Decode place: %v", err)
	}
	if place := e.(*Place); place.NumberOfRooms != 3 || place.Latitude != 10.5 {
		t.Fatalf("unexpected place: %+v", place)
	}

	e, err = Decode(KindReview, map[string]any{"rating": 4.5})
	if err != nil {
		t.Fatalf("Decode review: %v", err)
	}
	if review := e.(*Review); review.Rating != 4.5 {
		t.Fatalf("rating = %v", review.Rating)
	}

	place := &Place{NumberOfRooms: 1}
	if _, err := ApplyPatch(place, map[string]any{"number_of_rooms": 1.5}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error from patch, got %v", err)
	}
}

func TestValidateReportsFields(t *testing.T) {
	err := Validate(&Place{Latitude: 91})

	var appErr *errs.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *errs.Error, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range appErr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"latitude", "host_id", "city_id"} {
		if !fields[want] {
			t.Errorf("missing field error for %s in %+v", want, appErr.Errors)
		}
	}

	if err := Validate(NewUser("not-an-email", "Ada", "Lovelace", "hash")); err == nil {
		t.Fatalf("expected invalid email to fail")
	}
	if err := Validate(NewReview(uuid.New(), uuid.New(), "great", 6)); err == nil {
		t.Fatalf("expected rating above 5 to fail")
	}
	if err := Validate(NewCountry("France", "FR")); err != nil {
		t.Fatalf("valid country failed: %v", err)
	}
}

func TestApplyPatch(t *testing.T) {
	city := NewCity("Paris", "FR")

	changed, err := ApplyPatch(city, map[string]any{"name": "Lyon"})
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if city.Name != "Lyon" || city.CountryCode != "FR" {
		t.Fatalf("patch must only touch given fields: %+v", city)
	}
	if len(changed) != 1 || changed[0] != "name" {
		t.Fatalf("changed = %v", changed)
	}

	changed, err = ApplyPatch(city, map[string]any{})
	if err != nil || len(changed) != 0 {
		t.Fatalf("empty patch: %v %v", changed, err)
	}

	if _, err := ApplyPatch(city, map[string]any{"updated_at": time.Now()}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("reserved fields must be rejected, got %v", err)
	}
}

func TestApplyPatchPasswordHash(t *testing.T) {
	user := NewUser("ada@example.com", "Ada", "Lovelace", "old")

	changed, err := ApplyPatch(user, map[string]any{"password_hash": "new", "last_name": "King"})
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if user.PasswordHash != "new" || user.LastName != "King" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(changed) != 2 || changed[0] != "last_name" || changed[1] != "password_hash" {
		t.Fatalf("changed = %v", changed)
	}

	if _, err := ApplyPatch(NewCity("Paris", "FR"), map[string]any{"password_hash": "x"}); err == nil {
		t.Fatalf("password_hash is only a user field")
	}
}

func TestProjectOmitsSecrets(t *testing.T) {
	user := NewUser("ada@example.com", "Ada", "Lovelace", "$2a$10$secret")
	user.ID = uuid.New()
	user.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	user.UpdatedAt = user.CreatedAt

	out := Project(user)

	if _, ok := out["password_hash"]; ok {
		t.Fatalf("projection leaked password hash: %v", out)
	}
	for k, v := range out {
		if s, ok := v.(string); ok && s == user.PasswordHash {
			t.Fatalf("projection leaked password hash under %q", k)
		}
	}
	if out["id"] != user.ID.String() {
		t.Fatalf("id = %v", out["id"])
	}
	if out["created_at"] != "2024-05-01T12:00:00Z" {
		t.Fatalf("created_at = %v", out["created_at"])
	}
	if out["email"] != "ada@example.com" || out["is_admin"] != false {
		t.Fatalf("unexpected projection: %v", out)
	}
}
