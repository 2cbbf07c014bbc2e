package api

import (
	"context"
	"fmt"

	"github.com/nhle/facultyflow/internal/model"
)

func userPortfolioPath(userID int64) string {
	return fmt.Sprintf("/portfolio/user/%d", userID)
}

func (c *Client) getPortfolio(ctx context.Context, path string) (model.Portfolio, error) {
	var w wirePortfolio
	if err := c.get(ctx, path, &w); err != nil {
		return model.Portfolio{}, err
	}
	return decodePortfolio(w), nil
}

func (c *Client) savePortfolio(ctx context.Context, path string, in model.PortfolioInput) (model.Portfolio, error) {
	var w wirePortfolio
	if err := c.post(ctx, path, in, &w); err != nil {
		return model.Portfolio{}, err
	}
	return decodePortfolio(w), nil
}

// MyPortfolio fetches the current user's portfolio. A missing portfolio
// is reported as a 404 *Error.
func (c *Client) MyPortfolio(ctx context.Context) (model.Portfolio, error) {
	return c.getPortfolio(ctx, "/portfolio/me")
}

// SaveMyPortfolio creates or replaces the current user's portfolio.
func (c *Client) SaveMyPortfolio(ctx context.Context, in model.PortfolioInput) (model.Portfolio, error) {
	return c.savePortfolio(ctx, "/portfolio/me", in)
}

func (c *Client) DeleteMyPortfolio(ctx context.Context) error {
	return c.delete(ctx, "/portfolio/me")
}

// UserPortfolio fetches another user's portfolio.
func (c *Client) UserPortfolio(ctx context.Context, userID int64) (model.Portfolio, error) {
	return c.getPortfolio(ctx, userPortfolioPath(userID))
}

func (c *Client) SaveUserPortfolio(ctx context.Context, userID int64, in model.PortfolioInput) (model.Portfolio, error) {
	return c.savePortfolio(ctx, userPortfolioPath(userID), in)
}

func (c *Client) DeleteUserPortfolio(ctx context.Context, userID int64) error {
	return c.delete(ctx, userPortfolioPath(userID))
}

// AllPortfolios lists every portfolio (HOD and ADMIN only).
func (c *Client) AllPortfolios(ctx context.Context) ([]model.Portfolio, error) {
	var ws []*wirePortfolio
	if err := c.get(ctx, "/portfolio/all", &ws); err != nil {
		return nil, err
	}
	out := make([]model.Portfolio, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			out = append(out, decodePortfolio(*w))
		}
	}
	return out, nil
}
