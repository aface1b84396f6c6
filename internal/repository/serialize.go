package repository

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sslguardian/dashboard/internal/country"
	"github.com/sslguardian/dashboard/internal/model"
)

// isoFormat is the string layout the crawler stores validity dates in.
// Date predicates compare lexicographically against this layout.
const isoFormat = "2006-01-02T15:04:05Z"

// rawCertificate mirrors the scan document shape produced by the crawler
// (zgrab/zlint output plus a top-level domain field).
type rawCertificate struct {
	ID     primitive.ObjectID `bson:"_id"`
	Domain string             `bson:"domain"`
	Parsed struct {
		IssuerDN string `bson:"issuer_dn"`
		Names    []string
		Validity struct {
			Start  string `bson:"start"`
			End    string `bson:"end"`
			Length int64  `bson:"length"`
		} `bson:"validity"`
		Subject struct {
			CommonName   []string `bson:"common_name"`
			Organization []string `bson:"organization"`
		} `bson:"subject"`
		Issuer struct {
			Organization []string `bson:"organization"`
		} `bson:"issuer"`
		SignatureAlgorithm struct {
			Name string `bson:"name"`
		} `bson:"signature_algorithm"`
		SubjectKeyInfo struct {
			FingerprintSHA256 string `bson:"fingerprint_sha256"`
			KeyAlgorithm      struct {
				Name string `bson:"name"`
			} `bson:"key_algorithm"`
			RSAPublicKey struct {
				Length int `bson:"length"`
			} `bson:"rsa_public_key"`
			ECDSAPublicKey struct {
				Length int `bson:"length"`
			} `bson:"ecdsa_public_key"`
		} `bson:"subject_key_info"`
		Extensions struct {
			CertificatePolicies bson.A `bson:"certificate_policies"`
		} `bson:"extensions"`
	} `bson:"parsed"`
	Zlint struct {
		ErrorsPresent   bool                  `bson:"errors_present"`
		WarningsPresent bool                  `bson:"warnings_present"`
		Lints           map[string]lintResult `bson:"lints"`
	} `bson:"zlint"`
}

type lintResult struct {
	Result string `bson:"result"`
}

func (raw *rawCertificate) vulnerabilityCount() model.VulnerabilityCount {
	var counts model.VulnerabilityCount
	for _, lint := range raw.Zlint.Lints {
		switch lint.Result {
		case "error":
			counts.Errors++
		case "warn":
			counts.Warnings++
		}
	}
	return counts
}

func (raw *rawCertificate) domain() string {
	if raw.Domain != "" {
		return raw.Domain
	}
	if len(raw.Parsed.Subject.CommonName) > 0 {
		return raw.Parsed.Subject.CommonName[0]
	}
	return "Unknown"
}

func (raw *rawCertificate) issuerOrg() string {
	if len(raw.Parsed.Issuer.Organization) > 0 {
		return raw.Parsed.Issuer.Organization[0]
	}
	return "Unknown"
}

func (raw *rawCertificate) keyLength() int {
	if n := raw.Parsed.SubjectKeyInfo.RSAPublicKey.Length; n > 0 {
		return n
	}
	return raw.Parsed.SubjectKeyInfo.ECDSAPublicKey.Length
}

// encryptionType renders the key as displayed in the table,
// e.g. "RSA 2048 SHA256" or a bare "ECDSA" when the length is unknown.
func (raw *rawCertificate) encryptionType() string {
	algo := raw.Parsed.SubjectKeyInfo.KeyAlgorithm.Name
	if algo == "" {
		algo = "Unknown"
	}
	length := raw.keyLength()
	if length == 0 {
		return algo
	}
	name := fmt.Sprintf("%s %d", algo, length)
	if hash := hashToken(raw.Parsed.SignatureAlgorithm.Name); hash != "" {
		name += " " + hash
	}
	return name
}

// hashToken extracts the SHA token from a signature algorithm name such
// as "SHA256-RSA".
func hashToken(sigAlgo string) string {
	for _, token := range strings.Split(sigAlgo, "-") {
		if strings.Contains(strings.ToUpper(token), "SHA") {
			return token
		}
	}
	return ""
}

// validationLevel derives EV/OV/DV from the certificate policy blob.
func (raw *rawCertificate) validationLevel() string {
	if len(raw.Parsed.Extensions.CertificatePolicies) == 0 {
		return "DV"
	}
	blob := strings.ToLower(fmt.Sprintf("%v", raw.Parsed.Extensions.CertificatePolicies))
	switch {
	case strings.Contains(blob, "extended-validation") || strings.Contains(blob, "ev-ssl"):
		return "EV"
	case strings.Contains(blob, "organization-validation") || strings.Contains(blob, "ov-ssl"):
		return "OV"
	default:
		return "DV"
	}
}

func (raw *rawCertificate) status(now time.Time) model.Status {
	end, err := time.Parse(isoFormat, raw.Parsed.Validity.End)
	if err != nil {
		return model.StatusValid
	}
	return model.StatusAt(end, now)
}

// serialize converts a scan document into the API certificate shape.
func serialize(raw *rawCertificate, now time.Time) model.Certificate {
	domain := raw.domain()
	counts := raw.vulnerabilityCount()
	sigAlgo := raw.Parsed.SignatureAlgorithm.Name
	if sigAlgo == "" {
		sigAlgo = "Unknown"
	}
	return model.Certificate{
		ID:                 raw.ID.Hex(),
		Domain:             domain,
		Issuer:             raw.issuerOrg(),
		IssuerDN:           raw.Parsed.IssuerDN,
		ValidFrom:          raw.Parsed.Validity.Start,
		ValidTo:            raw.Parsed.Validity.End,
		Status:             raw.status(now),
		Grade:              model.GradeFor(counts),
		EncryptionType:     raw.encryptionType(),
		KeyLength:          raw.keyLength(),
		SignatureAlgorithm: sigAlgo,
		Vulnerabilities:    counts.Summary(),
		VulnerabilityCount: counts,
		SAN:                raw.Parsed.Names,
		Country:            country.ForDomain(domain),
		ScanDate:           raw.Parsed.Validity.Start,
		ValidationLevel:    raw.validationLevel(),
	}
}
