package dsk

import (
	"testing"

	"github.com/GATB/gatb-core-sub000/bank"
)

func TestConfigureRejectsEmptyBank(t *testing.T) {
	c := &Configurator{Config: Config{KmerSize: 21, MinimizerSize: 10}}
	b := bank.NewMemBank(nil)
	if _, err := c.Configure(b); err == nil {
		t.Fatal("expected ConfigurationError for empty bank")
	}
}

func TestConfigureProducesAtLeastOnePassAndPartition(t *testing.T) {
	c := &Configurator{Config: Config{KmerSize: 21, MinimizerSize: 10}}
	b := bank.NewMemBankFromStrings(
		"ACGTACGTACGTACGTACGTACGTACGTACGT",
		"TTTTACGTACGTACGTACGTACGTACGTACGT",
	)
	plan, err := c.Configure(b)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if plan.Passes < 1 || plan.Partitions < 1 {
		t.Fatalf("expected at least one pass/partition, got %+v", plan)
	}
}

func TestConfigureSamplesFrequencyTableWhenRequested(t *testing.T) {
	c := &Configurator{Config: Config{
		KmerSize: 21, MinimizerSize: 10, MinimizerType: MinimizerFrequency,
	}}
	b := bank.NewMemBankFromStrings(
		"ACGTACGTACGTACGTACGTACGTACGTACGT",
	)
	plan, err := c.Configure(b)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if plan.FreqTable == nil {
		t.Fatal("expected a non-nil frequency table when MinimizerType=Frequency")
	}
}

func TestRankByFrequencyRarestFirst(t *testing.T) {
	counts := map[uint64]uint64{1: 100, 2: 1, 3: 50}
	table := rankByFrequency(counts)
	if table[2] != 0 {
		t.Fatalf("rarest code should rank 0, got %d", table[2])
	}
	if table[1] != 2 {
		t.Fatalf("most frequent code should rank last, got %d", table[1])
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{10, 3, 4},
		{9, 3, 3},
		{0, 5, 0},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Fatalf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
