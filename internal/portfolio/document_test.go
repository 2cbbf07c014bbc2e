package portfolio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
)

func TestMarkdownSkipsEmptySections(t *testing.T) {
	md := portfolio.Markdown(model.Portfolio{
		UserID:    1,
		UserName:  "Ada Faculty",
		UserEmail: "ada@uni.edu",
		UserRole:  model.RoleFaculty,
		Bio:       "Teaches compilers",
		GithubURL: "https://github.com/ada",
	})

	assert.Equal(t, "# Ada Faculty\n\n*ada@uni.edu · FACULTY*\n\n## Bio\n\nTeaches compilers\n\n## Links\n\n- GitHub: https://github.com/ada\n", md)
}

func TestMarkdownWithoutName(t *testing.T) {
	assert.Equal(t, "# User #7\n", portfolio.Markdown(model.Portfolio{UserID: 7}))
}
