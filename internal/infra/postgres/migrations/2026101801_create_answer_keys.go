package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	up := mustSQL("answer_keys.up.sql")
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, up)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS answer_keys`)
			return err
		},
	)
}
