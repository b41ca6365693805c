package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	repo "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/internal/pkg/sqlitetools"
	"github.com/Masterminds/squirrel"
)

// BannersSQLiteRepo is the embedded catalog used for single-binary deployments
// and tests.
type BannersSQLiteRepo struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

func New(ctx context.Context, cfg config.SQLite) (BannersSQLiteRepo, error) {
	db, err := sqlitetools.Open(ctx, cfg)
	if err != nil {
		return BannersSQLiteRepo{}, fmt.Errorf("open sqlite error: %w", err)
	}

	return BannersSQLiteRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// DB is shared with the users repository.
func (r BannersSQLiteRepo) DB() *sql.DB {
	return r.db
}

func (r BannersSQLiteRepo) GetNode(ctx context.Context, id int64) (models.ContentNode, error) {
	query, args, err := repo.SelectNode(r.sb).Where(squirrel.Eq{"n.id": id}).ToSql()
	if err != nil {
		return models.ContentNode{}, fmt.Errorf("to sql error: %w", err)
	}

	n, err := repo.ScanNode(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ContentNode{}, repo.ErrNotFound
		}

		return models.ContentNode{}, fmt.Errorf("scan error: %w", err)
	}

	return n, nil
}

func (r BannersSQLiteRepo) CreateNode(ctx context.Context, node models.ContentNode) (int64, error) {
	return r.insert(ctx, repo.InsertNode(r.sb, node))
}

func (r BannersSQLiteRepo) UpdateNodeBanner(ctx context.Context, node models.ContentNode) error {
	query, args, err := repo.UpdateNodeBanner(r.sb, node).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if sqlitetools.IsForeignKeyViolation(err) {
			return repo.ErrNotFound
		}

		return fmt.Errorf("exec error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if affected == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (r BannersSQLiteRepo) GetBanner(ctx context.Context, id int64) (models.Banner, error) {
	query, args, err := repo.SelectBanner(r.sb).Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return models.Banner{}, fmt.Errorf("to sql error: %w", err)
	}

	b, err := repo.ScanBanner(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Banner{}, repo.ErrNotFound
		}

		return models.Banner{}, fmt.Errorf("scan error: %w", err)
	}

	return b, nil
}

func (r BannersSQLiteRepo) CreateBanner(ctx context.Context, b models.Banner) (int64, error) {
	return r.insert(ctx, repo.InsertBanner(r.sb, b))
}

func (r BannersSQLiteRepo) ListBanners(ctx context.Context, req repo.ListBannersRequest) ([]models.Banner, error) {
	query, args, err := repo.ListBanners(r.sb, req).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r BannersSQLiteRepo) GetGroupBanners(ctx context.Context, groupID int64) ([]models.Banner, error) {
	return r.ListBanners(ctx, repo.ListBannersRequest{GroupID: groupID})
}

func (r BannersSQLiteRepo) GetGroup(ctx context.Context, id int64) (models.BannerGroup, error) {
	return r.getGroup(ctx, squirrel.Eq{"id": id})
}

func (r BannersSQLiteRepo) GetGroupByName(ctx context.Context, name string) (models.BannerGroup, error) {
	return r.getGroup(ctx, squirrel.Eq{"name": name})
}

func (r BannersSQLiteRepo) getGroup(ctx context.Context, where squirrel.Eq) (models.BannerGroup, error) {
	query, args, err := repo.SelectGroup(r.sb).Where(where).ToSql()
	if err != nil {
		return models.BannerGroup{}, fmt.Errorf("to sql error: %w", err)
	}

	g, err := repo.ScanGroup(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BannerGroup{}, repo.ErrNotFound
		}

		return models.BannerGroup{}, fmt.Errorf("scan error: %w", err)
	}

	return g, nil
}

func (r BannersSQLiteRepo) ListGroups(ctx context.Context) ([]models.BannerGroup, error) {
	query, args, err := repo.SelectGroup(r.sb).OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r BannersSQLiteRepo) CreateGroup(ctx context.Context, g models.BannerGroup) (int64, error) {
	return r.insert(ctx, repo.InsertGroup(r.sb, g))
}

func (r BannersSQLiteRepo) GetImage(ctx context.Context, id int64) (models.Image, error) {
	query, args, err := repo.SelectImage(r.sb).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Image{}, fmt.Errorf("to sql error: %w", err)
	}

	img, err := repo.ScanImage(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Image{}, repo.ErrNotFound
		}

		return models.Image{}, fmt.Errorf("scan error: %w", err)
	}

	return img, nil
}

func (r BannersSQLiteRepo) CreateImage(ctx context.Context, img models.Image) (int64, error) {
	return r.insert(ctx, repo.InsertImage(r.sb, img))
}

func (r BannersSQLiteRepo) insert(ctx context.Context, ib squirrel.InsertBuilder) (int64, error) {
	query, args, err := ib.ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	var id int64

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		switch {
		case sqlitetools.IsUniqueViolation(err):
			return 0, repo.ErrAlreadyExists
		case sqlitetools.IsForeignKeyViolation(err):
			return 0, repo.ErrNotFound
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (r BannersSQLiteRepo) Shutdown(_ context.Context) error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close sqlite error: %w", err)
	}

	return nil
}
