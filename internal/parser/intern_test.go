package parser

import "testing"

func TestStringIntern(t *testing.T) {
	si := NewStringIntern()

	s1 := si.Intern("OUT")
	s2 := si.Intern("OUT")
	if s1 != s2 {
		t.Error("expected interned strings to be equal")
	}

	si.Intern("LD")
	if si.Len() != 2 {
		t.Errorf("expected pool size 2, got %d", si.Len())
	}

	si.Clear()
	if si.Len() != 0 {
		t.Errorf("expected pool size 0 after clear, got %d", si.Len())
	}
}

func BenchmarkStringIntern(b *testing.B) {
	si := NewStringIntern()
	mnemonics := []string{"LD", "LDI", "AND", "ANI", "OUT", "MOV", "DMOV", "EMOV"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		si.Intern(mnemonics[i%len(mnemonics)])
	}
}
