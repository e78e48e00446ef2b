package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eduka/campus-auth/pkg/roles"
)

func TestMongoUser_ToDomainNormalizesRole(t *testing.T) {
	cases := map[string]roles.Role{
		"user":    roles.Client,
		"admin":   roles.Admin,
		"teacher": roles.Teacher,
		"STUDENT": roles.Student,
	}
	for stored, want := range cases {
		doc := mongoUser{ID: primitive.NewObjectID(), Username: "u", Role: stored, CreatedAt: time.Now()}
		if got := doc.toDomain().Role; got != want {
			t.Fatalf("stored role %q mapped to %q, want %q", stored, got, want)
		}
	}
}
