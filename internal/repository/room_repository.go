package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo reads and writes the rooms table.
type RoomRepo struct{ db *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = "id, number, room_type, nightly_rate, capacity, description, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var (
		r    model.Room
		desc sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Number, &r.RoomType, &r.NightlyRate, &r.Capacity, &desc, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		r.Description = &d
	}
	return &r, nil
}

// FindRoomByNumber fetches a room by its public number.
func (r *RoomRepo) FindRoomByNumber(ctx context.Context, number int) (*model.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE number = ? LIMIT 1", number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %d: %w", number, booking.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find room %d: %w", number, err)
	}
	return room, nil
}

// ListRooms returns every room ordered by number.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+roomColumns+" FROM rooms ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

// CreateRoom inserts a room and fills in its ID.
func (r *RoomRepo) CreateRoom(ctx context.Context, room *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO rooms (number, room_type, nightly_rate, capacity, description) VALUES (?,?,?,?,?)",
		room.Number, room.RoomType, room.NightlyRate.StringFixed(2), room.Capacity, room.Description)
	if err != nil {
		if isDuplicate(err) {
			return ErrRoomExists
		}
		return fmt.Errorf("insert room: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// UpdateRoom changes type, rate, capacity and description of the room
// with room.Number.  Existing bookings keep the price they were made at.
func (r *RoomRepo) UpdateRoom(ctx context.Context, room *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE rooms SET room_type = ?, nightly_rate = ?, capacity = ?, description = ? WHERE number = ?",
		room.RoomType, room.NightlyRate.StringFixed(2), room.Capacity, room.Description, room.Number)
	if err != nil {
		return fmt.Errorf("update room %d: %w", room.Number, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 for an update that changes nothing, so check existence.
		if _, err := r.FindRoomByNumber(ctx, room.Number); err != nil {
			return err
		}
	}
	return nil
}
