package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ProductInput {
	return ProductInput{
		Title:    "Metallica - Master of Puppets",
		Artist:   "Metallica",
		Date:     "2025-03-15",
		Venue:    "Estadio Monumental",
		Category: "metallica",
		Images:   []string{"/images/shows/metallica-1.jpg"},
		Spaces: []Space{
			{Name: "Campo Delantero", BasePrice: decimal.NewFromInt(15000), Stock: 100},
			{Name: "Platea Alta", BasePrice: decimal.NewFromInt(6000), Stock: 120},
		},
	}
}

func TestPriceWithService(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"15000", "16500"},
		{"6000", "6600"},
		{"9999", "10999"},
		{"0", "0"},
		{"1234.5", "1358"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			s := Space{BasePrice: decimal.RequireFromString(tt.base)}
			assert.Equal(t, tt.want, s.PriceWithService().String())
		})
	}
}

func TestMinPriceWithService(t *testing.T) {
	p := validInput().ToProduct("id", time.Now())
	assert.Equal(t, "6600", p.MinPriceWithService().String())

	empty := Product{}
	assert.True(t, empty.MinPriceWithService().IsZero())

	resp := p.ToProductResponse()
	assert.Equal(t, "6600", resp.MinPriceWithService.String())
	assert.Equal(t, "id", resp.ID)
}

func TestNormalize(t *testing.T) {
	in := validInput()
	in.Title = "  padded  "
	in.Type = ""

	out := in.Normalize()
	assert.Equal(t, "padded", out.Title)
	assert.Equal(t, DefaultProductType, out.Type)
	assert.NotNil(t, out.Merchandise)

	in.Type = "festival"
	assert.Equal(t, "festival", in.Normalize().Type)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	tests := []struct {
		name   string
		mutate func(in *ProductInput)
	}{
		{"blank title", func(in *ProductInput) { in.Title = "   " }},
		{"missing artist", func(in *ProductInput) { in.Artist = "" }},
		{"missing venue", func(in *ProductInput) { in.Venue = "" }},
		{"missing category", func(in *ProductInput) { in.Category = "" }},
		{"bad date", func(in *ProductInput) { in.Date = "15/03/2025" }},
		{"no images", func(in *ProductInput) { in.Images = nil }},
		{"too many images", func(in *ProductInput) { in.Images = []string{"a", "b", "c", "d"} }},
		{"empty image", func(in *ProductInput) { in.Images = []string{""} }},
		{"no spaces", func(in *ProductInput) { in.Spaces = nil }},
		{"unnamed space", func(in *ProductInput) { in.Spaces[0].Name = "" }},
		{"negative price", func(in *ProductInput) { in.Spaces[0].BasePrice = decimal.NewFromInt(-1) }},
		{"negative stock", func(in *ProductInput) { in.Spaces[0].Stock = -1 }},
		{"bad merchandise", func(in *ProductInput) {
			in.Merchandise = []Merchandise{{ID: "m1", Name: "Remera", Price: decimal.NewFromInt(-5)}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			assert.ErrorIs(t, in.Validate(), ErrInvalidProduct)
		})
	}
}

func TestProductValidateRequiresID(t *testing.T) {
	p := validInput().ToProduct("", time.Now())
	assert.ErrorIs(t, p.Validate(), ErrInvalidProduct)

	p.ID = "abc"
	assert.NoError(t, p.Validate())
}

func TestCloneSharesNoSlices(t *testing.T) {
	in := validInput()
	in.Merchandise = []Merchandise{{ID: "m1", Name: "Remera", Price: decimal.NewFromInt(8000), Stock: 50}}
	original := in.ToProduct("id", time.Now())

	clone := original.Clone()
	clone.Images[0] = "other.jpg"
	clone.Spaces[0].BasePrice = decimal.NewFromInt(1)
	clone.Merchandise[0].Stock = 0

	assert.Equal(t, "/images/shows/metallica-1.jpg", original.Images[0])
	assert.True(t, decimal.NewFromInt(15000).Equal(original.Spaces[0].BasePrice))
	assert.Equal(t, 50, original.Merchandise[0].Stock)

	var empty Product
	assert.Nil(t, empty.Clone().Images)
}
