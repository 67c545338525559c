package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	out, err := Assemble("H:{history}|C:{context}|Q:{question}", "Human: a\nAI: b", "- doc", "Comment ?")
	require.NoError(t, err)
	assert.Equal(t, "H:Human: a\nAI: b|C:- doc|Q:Comment ?", out)
}

func TestAssemble_ValuesAreOpaque(t *testing.T) {
	// 值中的占位符文本与特殊字符原样保留
	out, err := Assemble("{history}/{context}/{question}", "{context}", "$1 \\n <b>", "{question}")
	require.NoError(t, err)
	assert.Equal(t, "{context}/$1 \\n <b>/{question}", out)
}

func TestAssemble_RepeatedSlot(t *testing.T) {
	out, err := Assemble("{question} {history} {context} {question}", "h", "c", "q")
	require.NoError(t, err)
	assert.Equal(t, "q h c q", out)
}

func TestAssemble_Deterministic(t *testing.T) {
	a, err := Assemble(DefaultTemplate, "h", "c", "q")
	require.NoError(t, err)
	b, err := Assemble(DefaultTemplate, "h", "c", "q")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "Question :\nq\n")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		missing  []string
	}{
		{"完整模板", "{history}{context}{question}", nil},
		{"缺少历史", "{context}{question}", []string{SlotHistory}},
		{"缺少全部", "Bonjour", []string{SlotHistory, SlotContext, SlotQuestion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.template)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTemplate)

			var te *TemplateError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.missing, te.Missing)
		})
	}
}

func TestAssemble_InvalidTemplate(t *testing.T) {
	_, err := Assemble("{history} {question}", "h", "c", "q")
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestStore(t *testing.T) {
	s, err := NewStore(DefaultTemplate)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, s.Template())

	// 非法模板不替换当前模板
	assert.ErrorIs(t, s.Set("no slots"), ErrTemplate)
	assert.Equal(t, DefaultTemplate, s.Template())

	require.NoError(t, s.Set("{history}|{context}|{question}"))
	out, err := s.Assemble("h", "c", "q")
	require.NoError(t, err)
	assert.Equal(t, "h|c|q", out)
}

func TestProvideStore(t *testing.T) {
	s, err := ProvideStore(&config.PromptConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, s.Template())
	assert.Empty(t, s.Path())

	path := filepath.Join(t.TempDir(), "template.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q={question} H={history} C={context}"), 0644))

	s, err = ProvideStore(&config.PromptConfig{TemplatePath: path})
	require.NoError(t, err)
	assert.Equal(t, "Q={question} H={history} C={context}", s.Template())
	assert.Equal(t, path, s.Path())

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("{question}"), 0644))
	_, err = ProvideStore(&config.PromptConfig{TemplatePath: bad})
	assert.ErrorIs(t, err, ErrTemplate)
}
