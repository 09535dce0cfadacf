package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/echoplexco/subscout/pkg/vector"
	"github.com/echoplexco/subscout/pkg/vector/chroma"
	"github.com/echoplexco/subscout/pkg/vector/memory"
	"github.com/echoplexco/subscout/pkg/vector/pgvector"
	"github.com/echoplexco/subscout/pkg/vector/qdrant"
	"github.com/echoplexco/subscout/pkg/vector/sqlitevec"
)

type NewIndexOpts struct {
	ProviderType string
	TargetURL    string
	DBPath       string
	Host         string
	Port         int
	Dimensions   int
	Logger       *slog.Logger
}

func NewIndex(ctx context.Context, o *NewIndexOpts) (vector.Index, error) {
	switch o.ProviderType {
	case "memory":
		return memory.NewIndex(o.Logger), nil
	case "sqlite":
		return sqlitevec.NewIndex(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: uint(o.Dimensions),
		}, o.Logger)
	case "chroma":
		return chroma.NewIndex(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewIndex(ctx, qdrant.Config{
			Host:       o.Host,
			Port:       o.Port,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "pgvector":
		return pgvector.NewIndex(ctx, pgvector.Config{
			DSN:        o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
