package mailwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectMatches(t *testing.T) {
	tests := []struct {
		subject string
		any     []string
		want    bool
	}{
		{"【591】您訂閱的物件有新上架", []string{"591", "租屋"}, true},
		{"本週租屋精選", []string{"591", "租屋"}, true},
		{"發票中獎通知", []string{"591", "租屋"}, false},
		{"anything", nil, true},
		{"大小寫 591 OK", []string{" 591 "}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubjectMatches(tt.subject, tt.any), tt.subject)
	}
}
