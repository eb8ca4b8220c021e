package wallet

import (
	"testing"

	"forksim_go/blockchain"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Put(New("Alice", 100.0, 5000, KeyModeCrackable))
	r.Put(New("Bob", 50.0, 5000, KeyModeCrackable))
	r.Put(New("Eve", 10.0, 200, KeyModeCrackable))
	return r
}

func TestSplitIdentity(t *testing.T) {
	t.Run("EvenSplit", func(t *testing.T) {
		r := newTestRegistry()
		parts, err := r.SplitIdentity("Eve", 2)
		if err != nil {
			t.Fatalf("SplitIdentity: %v", err)
		}
		if len(parts) != 2 {
			t.Fatalf("got %d parts, want 2", len(parts))
		}
		if parts[0].Name != "Eve_A" || parts[1].Name != "Eve_B" {
			t.Errorf("part names = %s, %s", parts[0].Name, parts[1].Name)
		}
		if parts[0].Stake != 100 || parts[1].Stake != 100 {
			t.Errorf("part stakes = %d, %d, want 100, 100", parts[0].Stake, parts[1].Stake)
		}
		if r.StakeOf("Eve") != 0 {
			t.Errorf("source stake = %d, want 0 after split", r.StakeOf("Eve"))
		}
	})

	t.Run("RemainderGoesToLast", func(t *testing.T) {
		r := NewRegistry()
		r.Put(New("Eve", 10.0, 201, KeyModeCrackable))
		parts, err := r.SplitIdentity("Eve", 2)
		if err != nil {
			t.Fatalf("SplitIdentity: %v", err)
		}
		if parts[0].Stake != 100 || parts[1].Stake != 101 {
			t.Errorf("part stakes = %d, %d, want 100, 101", parts[0].Stake, parts[1].Stake)
		}
		if parts[0].Stake+parts[1].Stake != 201 {
			t.Error("split must conserve total stake")
		}
	})

	t.Run("CopiesKeyState", func(t *testing.T) {
		r := newTestRegistry()
		if err := r.Compromise("Eve"); err != nil {
			t.Fatalf("Compromise: %v", err)
		}
		parts, err := r.SplitIdentity("Eve", 2)
		if err != nil {
			t.Fatalf("SplitIdentity: %v", err)
		}
		for _, p := range parts {
			if p.KeyMode != KeyModeCrackable || !p.Compromised {
				t.Errorf("%s: key state not copied from source", p.Name)
			}
		}
	})

	t.Run("DrainSurvivesReplay", func(t *testing.T) {
		r := newTestRegistry()
		if _, err := r.SplitIdentity("Eve", 2); err != nil {
			t.Fatalf("SplitIdentity: %v", err)
		}
		r.ReplayBalances(blockchain.NewChain("HonestChain"))
		eve, _ := r.Get("Eve")
		if eve.Balance != 0 {
			t.Errorf("drained source balance = %v after replay, want 0", eve.Balance)
		}
		a, _ := r.Get("Eve_A")
		if a.Balance != 5.0 {
			t.Errorf("Eve_A balance = %v after replay, want 5.0", a.Balance)
		}
	})

	t.Run("UnknownSource", func(t *testing.T) {
		r := newTestRegistry()
		if _, err := r.SplitIdentity("Mallory", 2); err == nil {
			t.Error("expected error for unknown source identity")
		}
	})
}

func TestSlashFloorsAtZero(t *testing.T) {
	r := newTestRegistry()

	if removed := r.Slash("Eve", 50); removed != 50 {
		t.Errorf("removed = %d, want 50", removed)
	}
	if r.StakeOf("Eve") != 150 {
		t.Errorf("stake = %d, want 150", r.StakeOf("Eve"))
	}

	if removed := r.Slash("Eve", 1000); removed != 150 {
		t.Errorf("removed = %d, want 150 (floored)", removed)
	}
	if r.StakeOf("Eve") != 0 {
		t.Errorf("stake = %d, want 0", r.StakeOf("Eve"))
	}

	if removed := r.Slash("Mallory", 50); removed != 0 {
		t.Errorf("slashing unknown wallet removed %d, want 0", removed)
	}
}

func TestCompromise(t *testing.T) {
	r := newTestRegistry()
	if err := r.Compromise("Alice"); err != nil {
		t.Fatalf("Compromise crackable key: %v", err)
	}
	alice, _ := r.Get("Alice")
	if !alice.Compromised {
		t.Error("Alice should be compromised")
	}

	r.UpgradeAllSecure()
	alice, _ = r.Get("Alice")
	if alice.Compromised || alice.KeyMode != KeyModeSecure {
		t.Error("UpgradeAllSecure should re-key and clear the compromised flag")
	}
	if err := r.Compromise("Alice"); err == nil {
		t.Error("secure key must not be compromisable")
	}
}

func TestReplayBalances(t *testing.T) {
	r := newTestRegistry()
	chain := blockchain.NewChain("HonestChain")
	chain.Mine("Miner1", []*blockchain.Transaction{
		blockchain.NewTransactionWithID("tx_honest_1", "Alice", "Bob", 10.0, "alice_sig_1"),
	})
	chain.Mine("Miner2", []*blockchain.Transaction{
		blockchain.NewTransactionWithID("tx_2", "Bob", "Eve", 5.0, "bob_sig_1"),
	})

	// Drift the balances, then replay.
	alice, _ := r.Get("Alice")
	alice.Balance = -42

	r.ReplayBalances(chain)

	wantBalances := map[string]float64{"Alice": 90.0, "Bob": 55.0, "Eve": 15.0}
	for name, want := range wantBalances {
		w, _ := r.Get(name)
		if w.Balance != want {
			t.Errorf("%s balance = %v, want %v", name, w.Balance, want)
		}
	}
}
