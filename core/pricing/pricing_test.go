package pricing

import "testing"

func TestBandForHour(t *testing.T) {
	cases := []struct {
		hour int
		want Band
	}{
		{0, BandOffPeak}, {5, BandOffPeak}, {6, BandStandard},
		{9, BandStandard}, {10, BandSolar}, {15, BandSolar},
		{16, BandStandard}, {18, BandPeak}, {21, BandPeak},
		{22, BandOffPeak}, {23, BandOffPeak},
	}
	for _, c := range cases {
		if got := BandForHour(c.hour); got != c.want {
			t.Errorf("hour %d: got %v want %v", c.hour, got, c.want)
		}
	}
}

func TestBandRates(t *testing.T) {
	if BandSolar.Rate() >= BandStandard.Rate() {
		t.Fatal("solar must be cheaper than standard")
	}
	if BandPeak.Rate() <= BandStandard.Rate() {
		t.Fatal("peak must be dearer than standard")
	}
	if BandStandard.CostFactor() != 1 {
		t.Fatalf("standard cost factor must be 1, got %v", BandStandard.CostFactor())
	}
}

func TestWorstCaseCost(t *testing.T) {
	if got := WorstCaseCost(40); got != 18.0*40 {
		t.Fatalf("worst case for 40 kWh: got %v", got)
	}
}

func TestCurrencyFor(t *testing.T) {
	if CurrencyFor("United States").Code != "USD" {
		t.Fatal("expected USD")
	}
	if CurrencyFor("USA").Code != "USD" {
		t.Fatal("alias USA should resolve to USD")
	}
	if CurrencyFor("").Code != "INR" {
		t.Fatal("empty country should fall back to INR")
	}
	if CurrencyFor("Atlantis").Code != "INR" {
		t.Fatal("unknown country should fall back to INR")
	}
}
