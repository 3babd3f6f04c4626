package domainrules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMapRules(t *testing.T) {
	tests := []struct {
		name    string
		file    RulesFile
		want    map[string]string
		wantErr bool
	}{
		{
			name: "valid rules",
			file: RulesFile{
				{Category: "Development", Domains: []string{"codeberg.org", " SourceHut.org "}},
				{Category: "Design", Domains: []string{"penpot.app"}},
			},
			want: map[string]string{
				"codeberg.org":  "Development",
				"sourcehut.org": "Development",
				"penpot.app":    "Design",
			},
		},
		{
			name:    "unknown category rejected",
			file:    RulesFile{{Category: "Memes", Domains: []string{"example.com"}}},
			wantErr: true,
		},
		{
			name:    "empty file rejected",
			file:    RulesFile{},
			wantErr: true,
		},
		{
			name:    "only blank domains rejected",
			file:    RulesFile{{Category: "News", Domains: []string{"", "   "}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapRules(tt.file)
			if tt.wantErr {
				if err == nil {
					t.Fatal("MapRules() = nil error, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("MapRules() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("MapRules() = %v, want %v", got, tt.want)
			}
			for domain, cat := range tt.want {
				if got[domain] != cat {
					t.Errorf("MapRules()[%q] = %q, want %q", domain, got[domain], cat)
				}
			}
		})
	}
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `- category: Development
  domains:
    - codeberg.org
- category: Business
  domains:
    - intranet.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rules["codeberg.org"] != "Development" || rules["intranet.example.com"] != "Business" {
		t.Errorf("Load() = %v", rules)
	}
}

func TestLoaderLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := NewLoader(filepath.Join(dir, "missing.yaml")).Load(); err == nil {
			t.Error("Load() = nil error for a missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		if err := os.WriteFile(path, []byte("{not yaml: ["), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := NewLoader(path).Load(); err == nil {
			t.Error("Load() = nil error for invalid yaml")
		}
	})
}
