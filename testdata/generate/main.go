// Command generate rebuilds testdata/fixture.json, a deterministic ledger
// for July 2026 covering every settlement path: collected and uncollected
// fees, same- and cross-currency tips, a tip without a recorded rate, rows
// settled by an earlier run, and rows the qualifying window must exclude.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/givebase/settler/internal/domain"
	"github.com/givebase/settler/internal/seed"
)

var periodStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	fx := seed.Fixture{
		Hosts:       hosts(),
		Collectives: collectives(),
		Plans:       plans(),
	}
	fx.Transactions = generateLedger(rng, fx.Hosts, fx.Collectives)

	writeJSONFile(filepath.Join(baseDir, "fixture.json"), fx)
	fmt.Printf("Generated %d hosts, %d collectives, %d plans, %d transactions -> fixture.json\n",
		len(fx.Hosts), len(fx.Collectives), len(fx.Plans), len(fx.Transactions))
}

func hosts() []domain.Host {
	created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Host{
		{ID: "H-OAF", Name: "Open Arts Foundation", Slug: "open-arts", Currency: "GBP",
			Plan: "grow", PayoutMethod: domain.PayoutBankAccount, Active: true, CreatedAt: created},
		{ID: "H-TSC", Name: "Tech Solidarity Commons", Slug: "tech-solidarity", Currency: "USD",
			Plan: "scale", PayoutMethod: domain.PayoutPaypal, Active: true, CreatedAt: created},
		{ID: "H-EUC", Name: "Euro Commons", Slug: "euro-commons", Currency: "EUR",
			Plan: "grow", PayoutMethod: domain.PayoutBankAccount, Active: true, CreatedAt: created},
		// Plan slug nobody sells anymore; settlement logs it and skips the share.
		{ID: "H-LEG", Name: "Legacy Guild", Slug: "legacy-guild", Currency: "USD",
			Plan: "founders", PayoutMethod: domain.PayoutOther, Active: true, CreatedAt: created},
		{ID: "H-DOR", Name: "Dormant House", Slug: "dormant-house", Currency: "USD",
			Plan: "grow", PayoutMethod: domain.PayoutOther, Active: false, CreatedAt: created},
	}
}

func collectives() []domain.Collective {
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Collective{
		{ID: "C-MURALS", HostID: "H-OAF", Name: "Street Murals", Slug: "street-murals", CreatedAt: created},
		{ID: "C-CHOIR", HostID: "H-OAF", Name: "Community Choir", Slug: "community-choir", CreatedAt: created},
		{ID: "C-MESH", HostID: "H-TSC", Name: "Mesh Networks", Slug: "mesh-networks", CreatedAt: created},
		{ID: "C-REPAIR", HostID: "H-TSC", Name: "Repair Cafe", Slug: "repair-cafe", CreatedAt: created},
		{ID: "C-RIVER", HostID: "H-EUC", Name: "River Cleanup", Slug: "river-cleanup", CreatedAt: created},
		{ID: "C-ARCHIVE", HostID: "H-LEG", Name: "Zine Archive", Slug: "zine-archive", CreatedAt: created},
	}
}

func plans() []domain.Plan {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Plan{
		{Slug: "grow", Name: "Grow", SharePercent: decimal.RequireFromString("15"), CreatedAt: created},
		{Slug: "scale", Name: "Scale", SharePercent: decimal.RequireFromString("8.5"), CreatedAt: created},
		{Slug: "legacy-free", Name: "Legacy Free", SharePercent: decimal.RequireFromString("0"), CreatedAt: created},
	}
}

// usdRate is the recorded conversion rate for USD tips per host currency,
// expressed as USD units per one host currency unit.
var usdRate = map[string]string{
	"GBP": "1.27",
	"EUR": "1.08",
	"USD": "1",
}

func generateLedger(rng *rand.Rand, hosts []domain.Host, collectives []domain.Collective) []domain.Transaction {
	byHost := make(map[string][]string)
	for _, c := range collectives {
		byHost[c.HostID] = append(byHost[c.HostID], c.ID)
	}

	var txns []domain.Transaction
	tips := 0
	unrated := 0

	for _, h := range hosts {
		if !h.Active {
			continue
		}
		n := 8 + rng.Intn(8)
		for i := 1; i <= n; i++ {
			id := fmt.Sprintf("TXN-%s-%03d", h.ID, i)
			group := fmt.Sprintf("grp-%s-%03d", strings.ToLower(h.ID), i)
			createdAt := periodStart.AddDate(0, 0, rng.Intn(31)).
				Add(time.Duration(rng.Intn(24))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)
			amount := int64(500 + rng.Intn(49500))

			txn := domain.Transaction{
				ID:                   id,
				Type:                 domain.TypeCredit,
				Status:               domain.StatusConfirmed,
				CollectiveID:         pick(rng, byHost[h.ID]),
				HostID:               h.ID,
				Amount:               amount,
				Currency:             h.Currency,
				AmountInHostCurrency: amount,
				HostCurrency:         h.Currency,
				TransactionGroup:     group,
				Description:          "Monthly contribution",
				CreatedAt:            createdAt,
			}

			// Fee mix: 60% collected platform fee, 30% uncollected host
			// fee, 10% fee-free.
			roll := rng.Float64()
			switch {
			case roll < 0.6:
				fee := -(amount * 5 / 100)
				txn.PlatformFeeInHostCurrency = &fee
			case roll < 0.9:
				fee := -(amount * 8 / 100)
				txn.HostFeeInHostCurrency = &fee
				if h.ID == "H-LEG" && rng.Float64() < 0.5 {
					// Captured at creation time, overrides the host plan.
					txn.Data.Plan = "legacy-free"
				}
			}
			txns = append(txns, txn)

			// 40% of contributions carry a platform tip.
			if rng.Float64() < 0.4 {
				tips++
				tipAmount := amount * int64(5+rng.Intn(11)) / 100
				tipCurrency := h.Currency
				if rng.Float64() < 0.4 {
					tipCurrency = "USD"
				}
				tip := domain.Transaction{
					ID:                   fmt.Sprintf("TIP-%s-%03d", h.ID, i),
					Type:                 domain.TypeCredit,
					Status:               domain.StatusConfirmed,
					CollectiveID:         "givebase",
					HostID:               "givebase",
					Amount:               tipAmount,
					Currency:             tipCurrency,
					AmountInHostCurrency: tipAmount,
					HostCurrency:         tipCurrency,
					TransactionGroup:     "tip-" + group,
					PlatformTipForGroup:  &group,
					Description:          "Platform tip",
					CreatedAt:            createdAt.Add(time.Minute),
				}
				if tipCurrency != h.Currency {
					if rng.Intn(8) == 0 {
						unrated++ // stays flagged until someone records the rate
					} else {
						rate := usdRate[h.Currency]
						tip.Data.HostToPlatformFxRate = json.RawMessage(`"` + rate + `"`)
					}
				}
				txns = append(txns, tip)
			}
		}
	}

	txns = append(txns, priorRunLeftovers()...)
	txns = append(txns, nonQualifyingRows()...)

	fmt.Printf("Ledger mix: %d tips (%d without a recorded rate)\n", tips, unrated)
	return txns
}

// priorRunLeftovers models a mid-month manual settlement: the contribution
// is already settled, and a later tip still references its group.
func priorRunLeftovers() []domain.Transaction {
	group := "grp-h-oaf-manual-001"
	settlementID := "manual-2026-07-early"
	fee := int64(-150)
	return []domain.Transaction{
		{
			ID:                        "TXN-H-OAF-MANUAL-001",
			Type:                      domain.TypeCredit,
			Status:                    domain.StatusConfirmed,
			CollectiveID:              "C-MURALS",
			HostID:                    "H-OAF",
			Amount:                    3000,
			Currency:                  "GBP",
			AmountInHostCurrency:      3000,
			HostCurrency:              "GBP",
			PlatformFeeInHostCurrency: &fee,
			TransactionGroup:          group,
			Description:               "Monthly contribution",
			Settled:                   true,
			SettlementID:              &settlementID,
			CreatedAt:                 time.Date(2026, 7, 3, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:                   "TIP-H-OAF-MANUAL-001",
			Type:                 domain.TypeCredit,
			Status:               domain.StatusConfirmed,
			CollectiveID:         "givebase",
			HostID:               "givebase",
			Amount:               240,
			Currency:             "GBP",
			AmountInHostCurrency: 240,
			HostCurrency:         "GBP",
			TransactionGroup:     "tip-" + group,
			PlatformTipForGroup:  &group,
			Description:          "Platform tip",
			CreatedAt:            time.Date(2026, 7, 20, 18, 30, 0, 0, time.UTC),
		},
	}
}

// nonQualifyingRows never enter a July settlement: wrong status, wrong
// type, or outside the window.
func nonQualifyingRows() []domain.Transaction {
	fee := int64(-90)
	return []domain.Transaction{
		{
			ID: "TXN-H-TSC-PENDING", Type: domain.TypeCredit, Status: domain.StatusPending,
			CollectiveID: "C-MESH", HostID: "H-TSC", Amount: 1800, Currency: "USD",
			AmountInHostCurrency: 1800, HostCurrency: "USD",
			PlatformFeeInHostCurrency: &fee, TransactionGroup: "grp-h-tsc-pending",
			Description: "Monthly contribution", CreatedAt: time.Date(2026, 7, 28, 11, 0, 0, 0, time.UTC),
		},
		{
			ID: "TXN-H-TSC-VOIDED", Type: domain.TypeCredit, Status: domain.StatusVoided,
			CollectiveID: "C-MESH", HostID: "H-TSC", Amount: 2500, Currency: "USD",
			AmountInHostCurrency: 2500, HostCurrency: "USD",
			PlatformFeeInHostCurrency: &fee, TransactionGroup: "grp-h-tsc-voided",
			Description: "Disputed contribution", CreatedAt: time.Date(2026, 7, 9, 16, 0, 0, 0, time.UTC),
		},
		{
			ID: "TXN-H-TSC-REFUND", Type: domain.TypeDebit, Status: domain.StatusConfirmed,
			CollectiveID: "C-REPAIR", HostID: "H-TSC", Amount: -1200, Currency: "USD",
			AmountInHostCurrency: -1200, HostCurrency: "USD",
			TransactionGroup: "grp-h-tsc-refund",
			Description:      "Refund", CreatedAt: time.Date(2026, 7, 14, 8, 0, 0, 0, time.UTC),
		},
		{
			ID: "TXN-H-OAF-JUNE", Type: domain.TypeCredit, Status: domain.StatusConfirmed,
			CollectiveID: "C-CHOIR", HostID: "H-OAF", Amount: 4200, Currency: "GBP",
			AmountInHostCurrency: 4200, HostCurrency: "GBP",
			PlatformFeeInHostCurrency: &fee, TransactionGroup: "grp-h-oaf-june",
			Description: "Monthly contribution", CreatedAt: time.Date(2026, 6, 27, 10, 0, 0, 0, time.UTC),
		},
	}
}

// --- helpers ---

func pick(rng *rand.Rand, ids []string) string {
	if len(ids) == 0 {
		return "givebase"
	}
	return ids[rng.Intn(len(ids))]
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

func findTestdataDir() string {
	// Expected to run from the repository root, e.g. go run ./testdata/generate.
	candidates := []string{
		"testdata",
		filepath.Join("..", "..", "testdata"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
