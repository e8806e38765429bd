package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reliefcheck/internal/domain"
)

func TestClassifyImageType(t *testing.T) {
	tests := []struct {
		name string
		hint string
		text string
		want string
	}{
		{"hint wins", domain.ImageTypeSocialPost, "please donate", domain.ImageTypeSocialPost},
		{"other hint falls through", domain.ImageTypeOther, "Donate via GPay", domain.ImageTypeHelpFlyer},
		{"help keyword", "", "FLOOD RELIEF camp", domain.ImageTypeHelpFlyer},
		{"multi word keyword", "", "we need your support us now", domain.ImageTypeHelpFlyer},
		{"help beats social", "", "breaking: fundraiser tonight", domain.ImageTypeHelpFlyer},
		{"social keyword", "", "Breaking news from the coast", domain.ImageTypeSocialPost},
		{"hint case ignored", "HELP_FLYER", "a picture of a cat", domain.ImageTypeHelpFlyer},
		{"hint separators ignored", "Social Post", "", domain.ImageTypeSocialPost},
		{"unknown hint uses keywords", "flyer", "Donate now", domain.ImageTypeHelpFlyer},
		{"unknown hint without keywords", "donation_request", "a picture of a cat", domain.ImageTypeOther},
		{"nothing", "", "a picture of a cat", domain.ImageTypeOther},
		{"empty", "", "", domain.ImageTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyImageType(tt.hint, tt.text))
		})
	}
}
