package helpers

import (
	"crypto/rand"
	"fmt"
)

// GenOTPCode generates a secure random OTP code uniform in [0, 999999].
// It is stored as a number on the user document and mailed zero-padded.
func GenOTPCode() (int32, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return 0, err
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	return int32(n % 1000000), nil
}

// FormatOTP renders an OTP code as the 6-digit string sent by mail.
func FormatOTP(code int32) string {
	return fmt.Sprintf("%06d", code)
}
