package span

import "testing"

func TestNewGenomeRejectsNonPositiveLength(t *testing.T) {
  defer func() {
    if recover() == nil {
      t.Fatal("NewGenome should panic on a non-positive chromosome length")
    }
  }()
  NewGenome([]string{"chr1"}, []int{0})
}

func TestGenomeAddSequenceRejectsDuplicate(t *testing.T) {
  g := NewGenome([]string{"chr1"}, []int{100})
  if _, err := g.AddSequence("chr1", 50); err == nil {
    t.Fatal("AddSequence should reject a duplicate chromosome name")
  }
}

func TestGenomeQueryRejectsUnknownChromosome(t *testing.T) {
  g := NewGenome([]string{"chr1", "chr2"}, []int{100, 200})
  if _, err := NewGenomeQuery(g, "chr3"); err == nil {
    t.Fatal("NewGenomeQuery should reject an unknown chromosome")
  }
}

func TestGenomeQueryDefaultsToWholeGenome(t *testing.T) {
  g := NewGenome([]string{"chr1", "chr2"}, []int{100, 200})
  q, err := NewGenomeQuery(g)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if q.Length() != 2 {
    t.Errorf("Length() = %d, want 2", q.Length())
  }
  if !q.Contains("chr1") || !q.Contains("chr2") {
    t.Error("whole-genome query should contain every chromosome")
  }
}

func TestGenomeQuerySubset(t *testing.T) {
  g := NewGenome([]string{"chr1", "chr2", "chr3"}, []int{100, 200, 300})
  q, err := NewGenomeQuery(g, "chr2")
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if q.Contains("chr1") || q.Contains("chr3") {
    t.Error("subset query should not contain chromosomes outside the subset")
  }
  length, err := q.SeqLength("chr2")
  if err != nil || length != 200 {
    t.Errorf("SeqLength(chr2) = (%d, %v), want (200, nil)", length, err)
  }
}
