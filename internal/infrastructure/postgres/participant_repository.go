package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataspace-connector/connector/internal/domain/participant"
)

const participantColumns = `id, did, name, description, homepage_url, roles, status, address, trust_level, revision, created_at, updated_at`

var _ participant.Repository = (*ParticipantRepository)(nil)

// ParticipantRepository implements participant.Repository.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*participant.Participant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE id=$1`, id)
	p, err := scanParticipant(row)
	return p, classify(err)
}

func (r *ParticipantRepository) FindAll(ctx context.Context) ([]*participant.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanParticipant)
}

func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) (*participant.Participant, error) {
	address, err := encodeAddress(p.Address)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO participants
		(id, did, name, description, homepage_url, roles, status, address, trust_level, revision, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+participantColumns,
		p.ID, p.DID, p.Name, p.Description, p.HomepageURL, rolesToStrings(p.Roles), string(p.Status), address,
		p.TrustLevel, initialRevision(p.Revision), p.CreatedAt, p.UpdatedAt)
	created, err := scanParticipant(row)
	if err != nil {
		return nil, classifyCreate(participant.EntityName, p.ID, err)
	}
	return created, nil
}

func (r *ParticipantRepository) Update(ctx context.Context, p *participant.Participant) (*participant.Participant, error) {
	address, err := encodeAddress(p.Address)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE participants
		SET did=$2, name=$3, description=$4, homepage_url=$5, roles=$6, status=$7, address=$8, trust_level=$9,
			updated_at=$10, revision=revision+1
		WHERE id=$1 AND revision=$11
		RETURNING `+participantColumns,
		p.ID, p.DID, p.Name, p.Description, p.HomepageURL, rolesToStrings(p.Roles), string(p.Status), address,
		p.TrustLevel, p.UpdatedAt, p.Revision)
	updated, err := scanParticipant(row)
	if err != nil {
		return nil, classify(err)
	}
	if updated == nil {
		return nil, missedUpdate(ctx, r.pool, "participants", participant.EntityName, p.ID, p.Revision)
	}
	return updated, nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id=$1`, id)
	return classify(err)
}

func scanParticipant(row pgx.Row) (*participant.Participant, error) {
	var (
		p       participant.Participant
		roles   []string
		status  string
		address []byte
	)
	if err := row.Scan(&p.ID, &p.DID, &p.Name, &p.Description, &p.HomepageURL, &roles, &status, &address,
		&p.TrustLevel, &p.Revision, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Roles = make([]participant.Role, 0, len(roles))
	for _, r := range roles {
		p.Roles = append(p.Roles, participant.Role(r))
	}
	p.Status = participant.Status(status)
	if len(address) > 0 {
		var a participant.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, err
		}
		p.Address = &a
	}
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)
	return &p, nil
}

func rolesToStrings(roles []participant.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func encodeAddress(a *participant.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}
