package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carelink/benefitlimits/internal/currency"
	"github.com/carelink/benefitlimits/internal/domain"
)

var memberNames = []string{
	"Aisyah Rahman", "Tan Wei Ming", "Priya Nair", "Muhammad Hafiz",
	"Lim Mei Ling", "Siti Nurhaliza",
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	plansDir := filepath.Join(baseDir, "plans")
	claimsDir := filepath.Join(baseDir, "claims")
	for _, dir := range []string{plansDir, claimsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range memberNames {
		planID := fmt.Sprintf("PLN-GEN-%03d", i+1)
		memberID := fmt.Sprintf("MBR-%03d", i+101)

		doc := domain.PlanDocument{
			Plan: domain.Plan{
				ID:         planID,
				Name:       planName(i),
				MemberID:   memberID,
				MemberName: name,
				Currency:   currency.DefaultCode,
				CreatedAt:  start,
			},
			Limits: limitTemplate(rng),
		}

		// Alternate formats so both import paths have sample data.
		if i%2 == 0 {
			writeJSONFile(filepath.Join(plansDir, planID+".json"), doc)
		} else {
			writeYAMLFile(filepath.Join(plansDir, planID+".yaml"), doc)
		}

		n := generateClaimsCSV(rng, filepath.Join(claimsDir, planID+".csv"), memberID, start)
		fmt.Printf("Generated plan %s with %d claims\n", planID, n)
	}

	fmt.Println("Test data generation complete.")
}

func planName(i int) string {
	if i%3 == 0 {
		return "Gold Outpatient"
	}
	return "Silver Outpatient"
}

// limitTemplate builds the standard outpatient tree with random
// utilization. Roughly one sub-limit in ten ends up over its ceiling.
func limitTemplate(rng *rand.Rand) []domain.LimitSpec {
	used := func(limit int64) int64 {
		roll := rng.Float64()
		switch {
		case roll < 0.10:
			return limit + int64(rng.Intn(int(limit/5)))
		case roll < 0.30:
			return limit * int64(80+rng.Intn(20)) / 100
		default:
			return limit * int64(rng.Intn(60)) / 100
		}
	}

	return []domain.LimitSpec{
		{
			ID: "overall", Name: "Overall Outpatient", Kind: "nested",
			ServiceTypes: []string{"GP", "SP", "OC", "DT"},
			LimitAmount:  150000, UtilizedAmount: used(150000) / 4,
			Children: []domain.LimitSpec{
				{ID: "gp", Name: "General Practitioner", Kind: "flat", ServiceTypes: []string{"GP"}, LimitAmount: 30000, UtilizedAmount: used(30000)},
				{ID: "specialist", Name: "Specialist", Kind: "flat", ServiceTypes: []string{"SP"}, LimitAmount: 60000, UtilizedAmount: used(60000)},
				{
					ID: "optical-dental", Name: "Optical & Dental", Kind: "nested",
					ServiceTypes: []string{"OC", "DT"},
					LimitAmount:  50000, UtilizedAmount: used(50000) / 2,
					Children: []domain.LimitSpec{
						{ID: "optical", Name: "Optical", Kind: "flat", ServiceTypes: []string{"OC"}, LimitAmount: 25000, UtilizedAmount: used(25000)},
						{ID: "dental", Name: "Dental", Kind: "flat", ServiceTypes: []string{"DT"}, LimitAmount: 20000, UtilizedAmount: used(20000)},
					},
				},
			},
		},
		{ID: "maternity", Name: "Maternity", Kind: "flat", ServiceTypes: []string{"MT"}, LimitAmount: 500000, UtilizedAmount: used(500000) / 10},
	}
}

// generateClaimsCSV writes 12-20 claims. XR claims are not covered by the
// template and show up as review findings.
func generateClaimsCSV(rng *rand.Rand, path, memberID string, start time.Time) int {
	serviceTypes := []string{"GP", "GP", "GP", "SP", "SP", "OC", "DT", "DT", "MT", "XR"}
	providers := []string{"Klinik Mesra", "Poliklinik Seri", "Hospital Pantai", "Optik Jaya", "Pusat Pergigian Senyum", "Pusat Xray"}

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"claim_number", "member_id", "date", "provider", "service_type", "amount", "status"})

	count := 12 + rng.Intn(9)
	for i := 1; i <= count; i++ {
		// Status distribution: 70% paid, 15% approved, 10% pending, 5% rejected.
		var status domain.ClaimStatus
		roll := rng.Float64()
		switch {
		case roll < 0.70:
			status = domain.ClaimPaid
		case roll < 0.85:
			status = domain.ClaimApproved
		case roll < 0.95:
			status = domain.ClaimPending
		default:
			status = domain.ClaimRejected
		}

		// Amount between RM 20 and RM 800.
		amount := domain.Cents(2000 + rng.Intn(78000))

		w.Write([]string{
			fmt.Sprintf("CLM-%s-%03d", memberID, i),
			memberID,
			start.AddDate(0, 0, rng.Intn(180)).Format("2006-01-02"),
			providers[rng.Intn(len(providers))],
			serviceTypes[rng.Intn(len(serviceTypes))],
			currency.FormatAmount(amount),
			string(status),
		})
	}
	return count
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func writeYAMLFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
	enc.Close()
}

func findTestdataDir() string {
	for _, c := range []string{"testdata", "../testdata"} {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
