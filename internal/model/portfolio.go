package model

import "time"

// Field limits enforced before a portfolio is saved.
const (
	MaxLongTextLen  = 2048
	MaxShortTextLen = 1024
)

// Portfolio is the free-text professional profile owned by one user.
type Portfolio struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"userId"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
	UserRole          Role      `json:"userRole"`
	UserDepartment    string    `json:"userDepartment"`
	Bio               string    `json:"bio"`
	ResearchInterests string    `json:"researchInterests"`
	Achievements      string    `json:"achievements"`
	Education         string    `json:"education"`
	Experience        string    `json:"experience"`
	WebsiteURL        string    `json:"websiteUrl"`
	LinkedinURL       string    `json:"linkedinUrl"`
	GithubURL         string    `json:"githubUrl"`
	TwitterURL        string    `json:"twitterUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Input returns the editable fields of p.
func (p Portfolio) Input() PortfolioInput {
	return PortfolioInput{
		Bio:               p.Bio,
		ResearchInterests: p.ResearchInterests,
		Achievements:      p.Achievements,
		Education:         p.Education,
		Experience:        p.Experience,
		WebsiteURL:        p.WebsiteURL,
		LinkedinURL:       p.LinkedinURL,
		GithubURL:         p.GithubURL,
		TwitterURL:        p.TwitterURL,
	}
}

// PortfolioInput is the create-or-update payload for a portfolio.
type PortfolioInput struct {
	Bio               string `json:"bio"`
	ResearchInterests string `json:"researchInterests"`
	Achievements      string `json:"achievements"`
	Education         string `json:"education"`
	Experience        string `json:"experience"`
	WebsiteURL        string `json:"websiteUrl"`
	LinkedinURL       string `json:"linkedinUrl"`
	GithubURL         string `json:"githubUrl"`
	TwitterURL        string `json:"twitterUrl"`
}
