package service

import (
	"testing"
	"time"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

func fingerprintProfile() domain.Profile {
	birth := time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
	return domain.Profile{
		UserID:            "u1",
		Bio:               "Me gusta el cine y la montaña",
		Interests:         []string{"cine", "senderismo", "cocina"},
		Gender:            domain.GenderFemale,
		SexualOrientation: "heterosexual",
		BirthDate:         &birth,
		AIAttributes:      map[string]string{"humor": "ironico", "plan_ideal": "cena tranquila"},
	}
}

func TestProfileFingerprint_Deterministic(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := fingerprintProfile()

	first := fingerprintAt(p, now)
	second := fingerprintAt(p, now)
	if first != second {
		t.Fatalf("expected stable fingerprint, got %s and %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", first)
	}
}

func TestProfileFingerprint_InterestOrderIrrelevant(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := fingerprintProfile()
	b := fingerprintProfile()
	b.Interests = []string{"cocina", "cine", "senderismo"}

	if fingerprintAt(a, now) != fingerprintAt(b, now) {
		t.Fatalf("expected same fingerprint regardless of interest order")
	}
}

func TestProfileFingerprint_SensitiveToRelevantFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := fingerprintProfile()
	baseFP := fingerprintAt(base, now)

	bio := fingerprintProfile()
	bio.Bio = "otra bio"
	if fingerprintAt(bio, now) == baseFP {
		t.Fatalf("expected bio change to alter fingerprint")
	}

	attrs := fingerprintProfile()
	attrs.AIAttributes = map[string]string{"humor": "seco"}
	if fingerprintAt(attrs, now) == baseFP {
		t.Fatalf("expected ai attribute change to alter fingerprint")
	}
}

func TestProfileFingerprint_IgnoresVolatileFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := fingerprintProfile()
	baseFP := fingerprintAt(base, now)

	lat, lon := 40.4, -3.7
	moved := fingerprintProfile()
	moved.Latitude = &lat
	moved.Longitude = &lon
	moved.Photos = []string{"photo-1.jpg"}
	moved.LastActiveAt = &now

	if fingerprintAt(moved, now) != baseFP {
		t.Fatalf("expected location, photos and activity to be excluded from fingerprint")
	}
}
