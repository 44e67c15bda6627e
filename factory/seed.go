/*
Package factory provides JSON to Go directory conversion.

PURPOSE:
  Loads the planning directory (collaborators, clients, the vacation
  category binding) from a JSON seed file. This enables configuration
  without code changes - operations can describe areas and clients in
  JSON, and the factory writes the proper records at startup.

JSON SCHEMA:
  {
    "vacation_category_id": "cat-vacation",
    "global_fallback_client_id": "client-internal",
    "collaborators": [
      {"id": "c-ada", "name": "Ada", "area_id": "area-north"}
    ],
    "clients": [
      {
        "id": "client-acme",
        "name": "ACME",
        "project_type_id": "pt-billable",
        "project_category_id": "cat-delivery",
        "area_id": "area-north"
      }
    ]
  }

KEY FEATURES:
  - Validates ids are present before any write
  - Idempotent: records are saved with upsert semantics
  - Produces the FallbackResolver binding, resolved once at load time

SEE ALSO:
  - planning/fallback.go: Resolver built from the loaded directory
  - cmd/server/main.go: Applies the seed when -seed is given
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/warp/weekplan/planning"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SeedJSON is the JSON representation of the directory seed.
type SeedJSON struct {
	VacationCategoryID     string             `json:"vacation_category_id"`
	GlobalFallbackClientID string             `json:"global_fallback_client_id,omitempty"`
	Collaborators          []CollaboratorJSON `json:"collaborators"`
	Clients                []ClientJSON       `json:"clients"`
}

type CollaboratorJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	AreaID string `json:"area_id,omitempty"`
}

type ClientJSON struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ProjectTypeID     string `json:"project_type_id,omitempty"`
	ProjectCategoryID string `json:"project_category_id,omitempty"`
	AreaID            string `json:"area_id,omitempty"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads and validates a seed file.
func Load(path string) (*SeedJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(data)
}

// Parse validates a raw seed document.
func Parse(data []byte) (*SeedJSON, error) {
	var seed SeedJSON
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	for i, c := range seed.Collaborators {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("collaborator %d: id and name are required", i)
		}
	}
	for i, c := range seed.Clients {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("client %d: id and name are required", i)
		}
	}
	return &seed, nil
}

// Apply writes the seed into the directory. Safe to re-run: saves use
// upsert semantics.
func (s *SeedJSON) Apply(ctx context.Context, dir planning.Directory) error {
	for _, c := range s.Collaborators {
		if err := dir.SaveCollaborator(ctx, planning.Collaborator{
			ID:     planning.CollaboratorID(c.ID),
			Name:   c.Name,
			AreaID: areaPtr(c.AreaID),
		}); err != nil {
			return fmt.Errorf("seed collaborator %s: %w", c.ID, err)
		}
	}
	for _, c := range s.Clients {
		if err := dir.SaveClient(ctx, planning.Client{
			ID:                planning.ClientID(c.ID),
			Name:              c.Name,
			ProjectTypeID:     planning.ProjectTypeID(c.ProjectTypeID),
			ProjectCategoryID: planning.ProjectCategoryID(c.ProjectCategoryID),
			AreaID:            areaPtr(c.AreaID),
		}); err != nil {
			return fmt.Errorf("seed client %s: %w", c.ID, err)
		}
	}
	return nil
}

// Resolver builds the fallback-client binding from the applied directory.
func (s *SeedJSON) Resolver(ctx context.Context, dir planning.Directory) (*planning.FallbackResolver, error) {
	return planning.NewFallbackResolver(ctx, dir,
		planning.ProjectCategoryID(s.VacationCategoryID),
		planning.ClientID(s.GlobalFallbackClientID))
}

func areaPtr(s string) *planning.AreaID {
	if s == "" {
		return nil
	}
	a := planning.AreaID(s)
	return &a
}
