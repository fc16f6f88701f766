package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeYears(t *testing.T) {
	now := time.Now()

	dob := now.AddDate(-30, 0, -1)
	assert.Equal(t, 30, AgeYears(dob))

	// Birthday not yet reached this year.
	dob = now.AddDate(-30, 0, 1)
	assert.Equal(t, 29, AgeYears(dob))
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"0821234567", "+27821234567", " 0821234567 "}
	for _, num := range valid {
		assert.True(t, ValidatePhoneNumber(num), num)
	}

	invalid := []string{"", "082123456", "08212345678", "+2782123456", "0021234567", "27821234567", "bogus"}
	for _, num := range invalid {
		assert.False(t, ValidatePhoneNumber(num), num)
	}
}

func TestHashOTPCodeIsKeyedAndStable(t *testing.T) {
	t.Setenv("OTP_HASH_SECRET", "secret-a")
	first := HashOTPCode("123456")
	assert.Len(t, first, 64)
	assert.Equal(t, first, HashOTPCode("123456"))
	assert.True(t, OTPHashEqual(first, "123456"))
	assert.False(t, OTPHashEqual(first, "654321"))

	t.Setenv("OTP_HASH_SECRET", "secret-b")
	assert.NotEqual(t, first, HashOTPCode("123456"))
}
