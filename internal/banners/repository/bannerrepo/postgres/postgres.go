package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	repo "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BannersPostgresRepo struct {
	db   *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func New(ctx context.Context, cfg config.PostgresDB) (BannersPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, cfg)
	if err != nil {
		return BannersPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg); err != nil {
		return BannersPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return BannersPostgresRepo{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Pool is shared with the users repository.
func (br BannersPostgresRepo) Pool() *pgxpool.Pool {
	return br.db
}

func (br BannersPostgresRepo) GetNode(ctx context.Context, id int64) (models.ContentNode, error) {
	query, args, err := repo.SelectNode(br.psql).Where(squirrel.Eq{"n.id": id}).ToSql()
	if err != nil {
		return models.ContentNode{}, fmt.Errorf("to sql error: %w", err)
	}

	n, err := repo.ScanNode(br.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ContentNode{}, repo.ErrNotFound
		}

		return models.ContentNode{}, fmt.Errorf("scan error: %w", err)
	}

	return n, nil
}

func (br BannersPostgresRepo) CreateNode(ctx context.Context, node models.ContentNode) (int64, error) {
	return br.insert(ctx, repo.InsertNode(br.psql, node), "create node")
}

func (br BannersPostgresRepo) UpdateNodeBanner(ctx context.Context, node models.ContentNode) (err error) {
	tx, err := br.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update node")
	}()

	query, args, err := repo.UpdateNodeBanner(br.psql, node).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if pgtools.IsForeignKeyViolation(err) {
			return repo.ErrNotFound
		}

		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (br BannersPostgresRepo) GetBanner(ctx context.Context, id int64) (models.Banner, error) {
	query, args, err := repo.SelectBanner(br.psql).Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return models.Banner{}, fmt.Errorf("to sql error: %w", err)
	}

	b, err := repo.ScanBanner(br.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Banner{}, repo.ErrNotFound
		}

		return models.Banner{}, fmt.Errorf("scan error: %w", err)
	}

	return b, nil
}

func (br BannersPostgresRepo) CreateBanner(ctx context.Context, b models.Banner) (int64, error) {
	return br.insert(ctx, repo.InsertBanner(br.psql, b), "create banner")
}

func (br BannersPostgresRepo) ListBanners(ctx context.Context, req repo.ListBannersRequest) ([]models.Banner, error) {
	query, args, err := repo.ListBanners(br.psql, req).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := br.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	banners := make([]models.Banner, 0, 10) //nolint:gomnd

	for rows.Next() {
		b, err := repo.ScanBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		banners = append(banners, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return banners, nil
}

func (br BannersPostgresRepo) GetGroupBanners(ctx context.Context, groupID int64) ([]models.Banner, error) {
	return br.ListBanners(ctx, repo.ListBannersRequest{GroupID: groupID})
}

func (br BannersPostgresRepo) GetGroup(ctx context.Context, id int64) (models.BannerGroup, error) {
	return br.getGroup(ctx, squirrel.Eq{"id": id})
}

func (br BannersPostgresRepo) GetGroupByName(ctx context.Context, name string) (models.BannerGroup, error) {
	return br.getGroup(ctx, squirrel.Eq{"name": name})
}

func (br BannersPostgresRepo) getGroup(ctx context.Context, where squirrel.Eq) (models.BannerGroup, error) {
	query, args, err := repo.SelectGroup(br.psql).Where(where).ToSql()
	if err != nil {
		return models.BannerGroup{}, fmt.Errorf("to sql error: %w", err)
	}

	g, err := repo.ScanGroup(br.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BannerGroup{}, repo.ErrNotFound
		}

		return models.BannerGroup{}, fmt.Errorf("scan error: %w", err)
	}

	return g, nil
}

func (br BannersPostgresRepo) ListGroups(ctx context.Context) ([]models.BannerGroup, error) {
	query, args, err := repo.SelectGroup(br.psql).OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := br.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var groups []models.BannerGroup

	for rows.Next() {
		g, err := repo.ScanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return groups, nil
}

func (br BannersPostgresRepo) CreateGroup(ctx context.Context, g models.BannerGroup) (int64, error) {
	return br.insert(ctx, repo.InsertGroup(br.psql, g), "create group")
}

func (br BannersPostgresRepo) GetImage(ctx context.Context, id int64) (models.Image, error) {
	query, args, err := repo.SelectImage(br.psql).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Image{}, fmt.Errorf("to sql error: %w", err)
	}

	img, err := repo.ScanImage(br.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, repo.ErrNotFound
		}

		return models.Image{}, fmt.Errorf("scan error: %w", err)
	}

	return img, nil
}

func (br BannersPostgresRepo) CreateImage(ctx context.Context, img models.Image) (int64, error) {
	return br.insert(ctx, repo.InsertImage(br.psql, img), "create image")
}

func (br BannersPostgresRepo) insert(ctx context.Context, //nolint:nonamedreturns
	ib squirrel.InsertBuilder, where string,
) (id int64, err error) {
	tx, err := br.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, where)
	}()

	query, args, err := ib.ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		switch {
		case pgtools.IsUniqueViolation(err):
			return 0, repo.ErrAlreadyExists
		case pgtools.IsForeignKeyViolation(err):
			return 0, repo.ErrNotFound
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (br BannersPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		br.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}
