package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"packwatch/internal/manifest"
)

const sampleExport = `Nº de Rastreio,Número da NF-e,Nome do Destinatário
TRK1,501,Maria Souza
TRK2,0502,João Lima
,999,Linha Sem Rastreio
TRK3 ,503, Ana Prado
`

func TestParseResolvesRecords(t *testing.T) {
	m, err := manifest.Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", m.Len())
	}

	rec, ok, err := m.Resolve("TRK1")
	if err != nil || !ok {
		t.Fatalf("Resolve(TRK1) = %v, %v", ok, err)
	}
	if rec.Invoice != "501" || rec.Recipient != "Maria Souza" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Leading zeros survive.
	rec, ok, _ = m.Resolve("TRK2")
	if !ok || rec.Invoice != "0502" {
		t.Fatalf("expected invoice 0502, got %+v (found=%v)", rec, ok)
	}

	// Whitespace around identifiers and fields is trimmed.
	rec, ok, _ = m.Resolve(" TRK3 ")
	if !ok || rec.Recipient != "Ana Prado" {
		t.Fatalf("expected trimmed TRK3 record, got %+v (found=%v)", rec, ok)
	}

	if _, ok, _ := m.Resolve("UNKNOWN"); ok {
		t.Fatal("unexpected hit for unknown identifier")
	}
}

func TestParseHeaderCaseInsensitive(t *testing.T) {
	body := "nº DE rastreio,NÚMERO DA nf-e,nome do destinatário\nTRK9,900,Dest\n"
	m, err := manifest.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok, _ := m.Resolve("TRK9"); !ok {
		t.Fatal("expected TRK9 to resolve")
	}
}

func TestParseMissingColumns(t *testing.T) {
	_, err := manifest.Parse(strings.NewReader("a,b,c\n1,2,3\n"))
	if !errors.Is(err, manifest.ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := manifest.Load(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", m.Len())
	}
}

func TestEmptyManifestNeverResolves(t *testing.T) {
	m := manifest.Empty()
	if _, ok, _ := m.Resolve("TRK1"); ok {
		t.Fatal("empty manifest must miss")
	}
}
