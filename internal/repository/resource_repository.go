package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campushub-api/internal/models"
)

const resourceColumns = `id, seq, branch, semester, subject, resource_type, title, COALESCE(description, '') AS description, tags,
	file_url, file_id, file_name, file_size, mime_type, syllabus_text, content_link,
	uploaded_by, download_count, is_active, last_accessed, uploaded_at, updated_at`

var resourceSortColumns = map[models.SortField]string{
	models.SortUploadedAt:    "uploaded_at",
	models.SortTitle:         `title COLLATE "C"`,
	models.SortDownloadCount: "download_count",
	models.SortSemester:      "semester",
}

// ResourceRepository persists resources in PostgreSQL.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new repository instance.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a resource and back-fills its sequence number.
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if res.UploadedAt.IsZero() {
		res.UploadedAt = now
	}
	res.UpdatedAt = res.UploadedAt
	res.IsActive = true
	if res.Tags == nil {
		res.Tags = pq.StringArray{}
	}

	const query = `INSERT INTO resources (id, branch, semester, subject, resource_type, title, description, tags,
		file_url, file_id, file_name, file_size, mime_type, syllabus_text, content_link,
		uploaded_by, download_count, is_active, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 0, TRUE, $17, $18)
		RETURNING seq`
	err := r.db.QueryRowxContext(ctx, query,
		res.ID, res.Branch, res.Semester, res.Subject, res.ResourceType, res.Title, res.Description, res.Tags,
		res.FileURL, res.FileID, res.FileName, res.FileSize, res.MimeType, res.SyllabusText, res.ContentLink,
		res.UploadedBy, res.UploadedAt, res.UpdatedAt,
	).Scan(&res.Seq)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

// FindByID returns an active resource by id.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1 AND is_active", resourceColumns)
	var res models.Resource
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByIDs returns the active resources among ids in insertion order.
func (r *ResourceRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Resource, error) {
	if len(ids) == 0 {
		return []models.Resource{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = ANY($1::uuid[]) AND is_active ORDER BY seq ASC", resourceColumns)
	var items []models.Resource
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find resources: %w", err)
	}
	return items, nil
}

// List returns one page of active resources matching the query, plus the total match count.
func (r *ResourceRepository) List(ctx context.Context, q models.ResourceQuery) ([]models.Resource, int, error) {
	where, args := buildResourceWhere(q.Filter)
	page := q.Page.Normalize()

	query := fmt.Sprintf("SELECT %s FROM resources %s ORDER BY %s LIMIT %d OFFSET %d",
		resourceColumns, where, orderClause(q.Sort), page.Limit, page.Offset())
	var items []models.Resource
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM resources "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}
	return items, total, nil
}

// ListAll returns every active resource matching filter.
func (r *ResourceRepository) ListAll(ctx context.Context, filter models.ResourceFilter, sort models.ResourceSort) ([]models.Resource, error) {
	where, args := buildResourceWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM resources %s ORDER BY %s", resourceColumns, where, orderClause(sort))
	var items []models.Resource
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return items, nil
}

// Touch records a read of the resource.
func (r *ResourceRepository) Touch(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE resources SET last_accessed = $2 WHERE id = $1 AND is_active`, id, at)
	if err != nil {
		return fmt.Errorf("touch resource: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementDownload atomically bumps the download counter and returns the updated row.
func (r *ResourceRepository) IncrementDownload(ctx context.Context, id string, at time.Time) (*models.Resource, error) {
	query := fmt.Sprintf(`UPDATE resources SET download_count = download_count + 1, last_accessed = $2
		WHERE id = $1 AND is_active RETURNING %s`, resourceColumns)
	var res models.Resource
	if err := r.db.GetContext(ctx, &res, query, id, at); err != nil {
		return nil, err
	}
	return &res, nil
}

// Delete removes resources permanently.
func (r *ResourceRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete resources: %w", err)
	}
	return result.RowsAffected()
}

// Deactivate hides resources from every read path.
func (r *ResourceRepository) Deactivate(ctx context.Context, ids []string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE resources SET is_active = FALSE, updated_at = $2 WHERE id = ANY($1::uuid[]) AND is_active`, pq.Array(ids), at)
	if err != nil {
		return 0, fmt.Errorf("deactivate resources: %w", err)
	}
	return result.RowsAffected()
}

func buildResourceWhere(f models.ResourceFilter) (string, []interface{}) {
	conditions := []string{"is_active"}
	var args []interface{}

	if f.Branch != "" {
		args = append(args, strings.ToUpper(strings.TrimSpace(f.Branch)))
		conditions = append(conditions, fmt.Sprintf("branch = $%d", len(args)))
	}
	if f.Semester != 0 {
		args = append(args, f.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}
	if subject := strings.TrimSpace(f.Subject); subject != "" {
		args = append(args, likePattern(subject))
		conditions = append(conditions, fmt.Sprintf(`subject ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if f.ResourceType != "" {
		args = append(args, string(f.ResourceType))
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", len(args)))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		args = append(args, likePattern(term))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			`(title ILIKE $%[1]d ESCAPE '\' OR COALESCE(description, '') ILIKE $%[1]d ESCAPE '\' OR subject ILIKE $%[1]d ESCAPE '\' OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%[1]d ESCAPE '\'))`, n))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func orderClause(s models.ResourceSort) string {
	s = s.Normalize()
	column := resourceSortColumns[s.Field]
	direction := "DESC"
	if s.Order == models.SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s, seq ASC", column, direction)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
