package repository

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tech", `%tech%`},
		{"100%", `%100\%%`},
		{"snake_case", `%snake\_case%`},
		{`C:\go`, `%C:\\go%`},
		{"", `%%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPattern(tt.in))
		})
	}
}

func TestFoldPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Go", `[Gg][oO]`},
		{"c.go", `[cC]\.[gG][oO]`},
		{"100%", `100%`},
		{"Über", `[Üü][bB][eE][rR]`},
		{"", ``},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FoldPattern(tt.in))
		})
	}
}

func TestFoldPatternMatchesAnyCase(t *testing.T) {
	re := regexp.MustCompile(FoldPattern("école"))
	for _, s := range []string{"École numérique", "ÉCOLE", "une école", "ÉcOlE"} {
		assert.True(t, re.MatchString(s), s)
	}
	assert.False(t, re.MatchString("ecole"))
	assert.False(t, regexp.MustCompile(FoldPattern("c.go")).MatchString("cxgo"))
}
