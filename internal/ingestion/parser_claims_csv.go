package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/carelink/benefitlimits/internal/currency"
	"github.com/carelink/benefitlimits/internal/domain"
)

// ParseClaimsCSV parses a member's claim history export.
//
// Expected header:
//
//	claim_number,member_id,date,provider,service_type,amount,status
//
// amount is in major units ("150.00"). Claims come back sorted by date
// ascending.
func ParseClaimsCSV(data []byte, planID string) ([]domain.Claim, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 7 {
		return nil, fmt.Errorf("expected 7 columns, got %d", len(header))
	}

	var claims []domain.Claim
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 7 {
			continue
		}

		claimNumber := strings.TrimSpace(row[0])
		if claimNumber == "" {
			return nil, fmt.Errorf("line %d: claim_number is required", lineNum)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[2]))
		if err != nil {
			date, err = time.Parse(time.RFC3339, strings.TrimSpace(row[2]))
			if err != nil {
				return nil, fmt.Errorf("line %d date: %w", lineNum, err)
			}
		}

		st := domain.NormalizeServiceType(row[4])
		if st == "" {
			return nil, fmt.Errorf("line %d: service_type is required", lineNum)
		}

		amount, err := currency.ParseMajor(row[5])
		if err != nil {
			return nil, fmt.Errorf("line %d amount: %w", lineNum, err)
		}

		status := domain.ClaimStatus(strings.ToLower(strings.TrimSpace(row[6])))
		if !domain.ValidClaimStatuses[status] {
			return nil, fmt.Errorf("line %d: unknown status %q", lineNum, row[6])
		}

		claims = append(claims, domain.Claim{
			ClaimNumber: claimNumber,
			MemberID:    strings.TrimSpace(row[1]),
			PlanID:      planID,
			Date:        date,
			Provider:    strings.TrimSpace(row[3]),
			ServiceType: st,
			Amount:      amount,
			Status:      status,
		})
	}

	slices.SortStableFunc(claims, func(a, b domain.Claim) int {
		return a.Date.Compare(b.Date)
	})
	return claims, nil
}
