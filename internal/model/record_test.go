package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Valid(t *testing.T) {
	assert.True(t, Record{Name: "Acme SA"}.Valid())
	assert.False(t, Record{Name: ""}.Valid())
	assert.False(t, Record{Name: "   "}.Valid())
}

func TestClassify_AllCombinations(t *testing.T) {
	tests := []struct {
		email, phone, website bool
		want                  Status
	}{
		{true, true, true, StatusSuccess},
		{true, true, false, StatusPartial},
		{true, false, true, StatusPartial},
		{false, true, true, StatusPartial},
		{true, false, false, StatusPartial},
		{false, true, false, StatusPartial},
		{false, false, true, StatusPartial},
		{false, false, false, StatusFailed},
	}

	for _, tt := range tests {
		c := ContactInfo{}
		if tt.email {
			c.Email = "info@acme.com.ar"
		}
		if tt.phone {
			c.Phone = "1143215678"
		}
		if tt.website {
			c.Website = "https://acme.com.ar"
		}
		assert.Equal(t, tt.want, Classify(c),
			"email=%v phone=%v website=%v", tt.email, tt.phone, tt.website)
	}
}

func TestContactInfo_Merge_FirstNonEmptyWins(t *testing.T) {
	primary := ContactInfo{
		Website: "https://acme.com.ar",
		Email:   "ventas@acme.com.ar",
	}
	secondary := ContactInfo{
		Website: "https://acme.com.ar/contacto",
		Email:   "info@acme.com.ar",
		Phone:   "1143215678",
		Address: "Av. Corrientes 1234, CABA",
	}

	merged := primary.Merge(secondary)

	// Primary website is never overwritten by the secondary page URL.
	assert.Equal(t, "https://acme.com.ar", merged.Website)
	assert.Equal(t, "ventas@acme.com.ar", merged.Email)
	assert.Equal(t, "1143215678", merged.Phone)
	assert.Equal(t, "Av. Corrientes 1234, CABA", merged.Address)
}

func TestContactInfo_Empty(t *testing.T) {
	assert.True(t, ContactInfo{}.Empty())
	assert.False(t, ContactInfo{Website: "https://acme.com.ar"}.Empty())
}
