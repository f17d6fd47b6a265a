package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// ArtisanCommand is one entry from `php artisan list`.
type ArtisanCommand struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type artisanList struct {
	Commands []ArtisanCommand `json:"commands"`
}

// ArtisanCommands shells out to the project's artisan binary and returns the
// available commands. Non-Laravel projects fail here; the UI hides the panel
// on error.
func (s *Service) ArtisanCommands(ctx context.Context, id string) ([]ArtisanCommand, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "php", "artisan", "list", "--format=json")
	cmd.Dir = project.Location
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("project: artisan list: %w", err)
	}

	return parseArtisanList(out)
}

func parseArtisanList(data []byte) ([]ArtisanCommand, error) {
	var list artisanList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("project: parse artisan list: %w", err)
	}
	return list.Commands, nil
}
