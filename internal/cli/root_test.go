package cli

import "testing"

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "folio" {
		t.Fatalf("expected use folio, got %v", cmd.Use)
	}

	if cmd.PersistentFlags().Lookup("debug") == nil {
		t.Fatal("expected persistent debug flag")
	}
}

func TestRootSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"ingest", "submit", "worker"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Fatalf("expected %s command, got error %v", name, err)
		}
		if sub.Name() != name {
			t.Fatalf("expected command %s, got %v", name, sub.Name())
		}
	}
}

func TestIngestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	ingest, _, err := cmd.Find([]string{"ingest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		flag string
		want string
	}{
		{flag: "recipe", want: "recipe.yaml"},
		{flag: "output", want: "output"},
		{flag: "batch-size", want: "1000"},
		{flag: "user", want: ""},
	}

	for _, c := range cases {
		f := ingest.Flags().Lookup(c.flag)
		if f == nil {
			t.Fatalf("expected flag %s", c.flag)
		}
		if f.DefValue != c.want {
			t.Fatalf("expected default %q for %s, got %q", c.want, c.flag, f.DefValue)
		}
	}
}

func TestSubmitCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	submit, _, err := cmd.Find([]string{"submit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if submit.Flags().Lookup("user") == nil {
		t.Fatal("expected user flag")
	}
}

func TestWorkerCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	worker, _, err := cmd.Find([]string{"worker"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := worker.Flags().Lookup("recipe")
	if f == nil {
		t.Fatal("expected recipe flag")
	}
	if f.DefValue != "recipe.yaml" {
		t.Fatalf("expected default recipe.yaml, got %q", f.DefValue)
	}
}
