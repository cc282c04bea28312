package enums

import "fmt"

// CertificateStatus maps to the certificate_status_enum enum in Postgres.
// A certificate is immutable once minted except for this field.
type CertificateStatus string

const (
	CertificateStatusAvailable   CertificateStatus = "available"
	CertificateStatusReserved    CertificateStatus = "reserved"
	CertificateStatusTransferred CertificateStatus = "transferred"
)

var validCertificateStatuses = []CertificateStatus{
	CertificateStatusAvailable,
	CertificateStatusReserved,
	CertificateStatusTransferred,
}

// IsValid reports whether the value matches the canonical certificate status enum.
func (s CertificateStatus) IsValid() bool {
	for _, candidate := range validCertificateStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCertificateStatus converts raw input into CertificateStatus.
func ParseCertificateStatus(value string) (CertificateStatus, error) {
	for _, candidate := range validCertificateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid certificate status %q", value)
}
