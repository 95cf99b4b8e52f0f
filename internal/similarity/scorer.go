// Package similarity scores how likely two member records describe the same person.
//
// Scoring is pure and symmetric: Score(a, b) and Score(b, a) return the same score and
// the same breakdown. Each signal category contributes a bounded number of points and
// the sum is clamped to MaxScore. Empty fields skip their category.
package similarity

import (
	"strings"
	"unicode/utf8"

	"member-dedup/internal/entities"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxScore is the upper bound of a duplicate score.
const MaxScore = 100

const (
	pointsExactName  = 40
	pointsHighName   = 30
	pointsMediumName = 20

	pointsSameCompanyID   = 20
	pointsSimilarCompany  = 15
	pointsSimilarEmail    = 15
	pointsEmailDomainOnly = 10
	pointsSamePhone       = 10

	pointsStreet   = 5
	pointsSuburb   = 3
	pointsPostcode = 4
	pointsState    = 3

	highNameThreshold      = 80.0
	mediumNameThreshold    = 60.0
	companyThreshold       = 80.0
	emailLocalThreshold    = 70.0
	streetSimilarThreshold = 80.0
)

// Profile is a member record normalized once for repeated comparisons.
type Profile struct {
	ID          string
	FullName    string
	CompanyID   string
	CompanyName string
	Email       string
	EmailLocal  string
	EmailDomain string
	Phone       string
	Street      string
	Suburb      string
	Postcode    string
	State       string
}

// Prepare normalizes the fields of m that take part in scoring.
func Prepare(m entities.Member) Profile {
	lower := cases.Lower(language.Und)
	norm := func(s string) string {
		return lower.String(strings.TrimSpace(s))
	}

	p := Profile{
		ID:          m.ID,
		FullName:    norm(m.FirstName + " " + m.LastName),
		CompanyID:   strings.TrimSpace(m.CompanyID),
		CompanyName: norm(m.CompanyName),
		Email:       norm(m.Email),
		Street:      norm(m.StreetAddress),
		Suburb:      norm(m.Suburb),
		Postcode:    strings.TrimSpace(m.Postcode),
		State:       norm(m.State),
	}
	if p.Email != "" {
		p.EmailLocal, p.EmailDomain, _ = strings.Cut(p.Email, "@")
	}

	// Mobile is only consulted when no phone is recorded at all.
	phone := m.Phone
	if phone == "" {
		phone = m.Mobile
	}
	p.Phone = digitsOnly(phone)
	return p
}

// Score computes the duplicate likelihood of a and b together with its breakdown.
func Score(a, b entities.Member) (int, entities.MatchDetail) {
	return ScoreProfiles(Prepare(a), Prepare(b))
}

// ScoreProfiles scores two prepared profiles.
func ScoreProfiles(a, b Profile) (int, entities.MatchDetail) {
	detail := entities.MatchDetail{NameTier: entities.NameTierNone}

	scoreName(a, b, &detail)
	scoreCompany(a, b, &detail)
	scoreEmail(a, b, &detail)
	scorePhone(a, b, &detail)
	scoreAddress(a, b, &detail)

	total := detail.Points.Total()
	if total > MaxScore {
		total = MaxScore
	}
	return total, detail
}

func scoreName(a, b Profile, d *entities.MatchDetail) {
	if a.FullName == "" || b.FullName == "" {
		return
	}
	pct := similarity(a.FullName, b.FullName)
	d.NameSimilarity = pct
	switch {
	case pct == 100:
		d.ExactName = true
		d.NameTier = entities.NameTierExact
		d.Points.Name = pointsExactName
	case pct > highNameThreshold:
		d.SimilarName = true
		d.NameTier = entities.NameTierHigh
		d.Points.Name = pointsHighName
	case pct > mediumNameThreshold:
		d.SimilarName = true
		d.NameTier = entities.NameTierMedium
		d.Points.Name = pointsMediumName
	}
}

func scoreCompany(a, b Profile, d *entities.MatchDetail) {
	if a.CompanyID != "" && a.CompanyID == b.CompanyID {
		d.SameCompany = true
		d.Points.Company = pointsSameCompanyID
		return
	}
	if a.CompanyName == "" || b.CompanyName == "" {
		return
	}
	pct := similarity(a.CompanyName, b.CompanyName)
	d.CompanySimilarity = pct
	if pct > companyThreshold {
		d.SameCompany = true
		d.Points.Company = pointsSimilarCompany
	}
}

func scoreEmail(a, b Profile, d *entities.MatchDetail) {
	if a.Email == "" || b.Email == "" {
		return
	}
	if a.Email == b.Email {
		d.ExactEmail = true
		d.SimilarEmail = true
		d.EmailDomainMatch = a.EmailDomain != ""
		d.Points.Email = pointsSimilarEmail
		return
	}
	if a.EmailDomain == "" || a.EmailDomain != b.EmailDomain {
		return
	}
	d.EmailDomainMatch = true
	if a.EmailLocal != "" && b.EmailLocal != "" && similarity(a.EmailLocal, b.EmailLocal) > emailLocalThreshold {
		d.SimilarEmail = true
		d.Points.Email = pointsSimilarEmail
		return
	}
	d.Points.Email = pointsEmailDomainOnly
}

func scorePhone(a, b Profile, d *entities.MatchDetail) {
	if a.Phone != "" && a.Phone == b.Phone {
		d.SamePhone = true
		d.Points.Phone = pointsSamePhone
	}
}

func scoreAddress(a, b Profile, d *entities.MatchDetail) {
	if a.Street != "" && b.Street != "" && similarity(a.Street, b.Street) > streetSimilarThreshold {
		d.Address.Street = true
		d.Points.Address += pointsStreet
	}
	if a.Suburb != "" && a.Suburb == b.Suburb {
		d.Address.Suburb = true
		d.Points.Address += pointsSuburb
	}
	if a.Postcode != "" && a.Postcode == b.Postcode {
		d.Address.Postcode = true
		d.Points.Address += pointsPostcode
	}
	if a.State != "" && a.State == b.State {
		d.Address.State = true
		d.Points.Address += pointsState
	}
	d.SameAddress = d.Address.Any()
}

// Similarity returns the edit-distance similarity of two strings as a percentage in [0, 100],
// comparing them case-insensitively after trimming.
func Similarity(a, b string) float64 {
	lower := cases.Lower(language.Und)
	return similarity(lower.String(strings.TrimSpace(a)), lower.String(strings.TrimSpace(b)))
}

func similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	distance := levenshtein.ComputeDistance(a, b)
	pct := 100 - float64(distance)*100/float64(maxLen)
	if pct < 0 {
		return 0
	}
	return pct
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
