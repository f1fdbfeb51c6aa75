package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stuff-lending/lending"
)

const sample = `{
  "members": [
    {"name": "John Doe", "phone": "1234567890", "email": "john@example.com",
     "items": [
       {"name": "Power Drill", "category": "tool", "description": "A powerful cordless drill", "cost_per_day": 5},
       {"name": "Hover Board", "category": "vehicle", "description": "Barely works", "cost_per_day": 2.5},
       {"name": "Time Machine", "category": "magic", "description": "Unlisted category", "cost_per_day": 1}
     ]},
    {"name": "Jane Smith", "phone": "0987654321", "email": "jane.example.com",
     "items": [{"name": "Mountain Bike", "category": "sport", "description": "High-quality mountain bike", "cost_per_day": 15}]},
    {"name": "Jane Smith", "phone": "0987654321", "email": "jane@example.com"}
  ]
}`

func TestImportCatalogue(t *testing.T) {
	ctx := context.Background()
	mgr, err := lending.NewManager(ctx, lending.NewMemoryStore(), lending.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := importCatalogue(ctx, mgr, strings.NewReader(sample), &out)
	require.NoError(t, err)

	assert.Equal(t, importResult{Members: 2, Items: 2, Errors: 2}, res)
	assert.Len(t, mgr.Members(), 2)

	items := mgr.Items()
	require.Len(t, items, 2)
	assert.Equal(t, lending.Credits(250), items[1].CostPerDay)

	john := mgr.Members()[0]
	assert.Equal(t, lending.WholeCredits(200), john.Credit)
	assert.Contains(t, out.String(), "Importing item: Time Machine... ERROR")
}

func TestImportCatalogueRejectsBadJSON(t *testing.T) {
	mgr, err := lending.NewManager(context.Background(), lending.NewMemoryStore(), lending.Options{})
	require.NoError(t, err)
	_, err = importCatalogue(context.Background(), mgr, strings.NewReader("{"), io.Discard)
	assert.Error(t, err)
}
