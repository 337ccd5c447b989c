package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reisftw/duogesto/internal/core"
)

// Categories, users and household planning records. Same conventions as
// repository.go.

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	c.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, label, icon, color, kind) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Label, c.Icon, c.Color, string(c.Kind))
	if err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}
	return c.ID, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, label, icon, color, kind FROM categories ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Label, &c.Icon, &c.Color, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.CategoryKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return affected(res, "category", id)
}

// --- users ---

const userColumns = `id, name, username, password_hash, role, partner_id, accounting_start_date, created_at`

func scanUser(scan func(dest ...any) error) (core.User, error) {
	var u core.User
	var role, start, created string
	if err := scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &role,
		&u.PartnerID, &start, &created); err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	u.AccountingStartDate = decodeTime(start)
	u.CreatedAt = decodeTime(created)
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (string, error) {
	u.ID = newID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, username, password_hash, role, partner_id, accounting_start_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Username, u.PasswordHash, string(u.Role),
		u.PartnerID, encodeTime(u.AccountingStartDate), encodeTime(u.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return u.ID, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row.Scan)
	if err != nil {
		return core.User{}, notFound("user", id, err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row.Scan)
	if err != nil {
		return core.User{}, notFound("user", username, err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = ?, username = ?, password_hash = ?, role = ?,
			partner_id = ?, accounting_start_date = ?
		WHERE id = ?`,
		u.Name, u.Username, u.PasswordHash, string(u.Role),
		u.PartnerID, encodeTime(u.AccountingStartDate), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res, "user", u.ID)
}

// --- household planning ---

func (r *SQLiteRepository) CreateRoom(ctx context.Context, room core.Room) (string, error) {
	room.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, icon, color) VALUES (?, ?, ?, ?)`,
		room.ID, room.Name, room.Icon, room.Color)
	if err != nil {
		return "", fmt.Errorf("insert room: %w", err)
	}
	return room.ID, nil
}

func (r *SQLiteRepository) ListRooms(ctx context.Context) ([]core.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, color FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []core.Room
	for rows.Next() {
		var room core.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Icon, &room.Color); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteRoom(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return affected(res, "room", id)
}

func (r *SQLiteRepository) CreateHomeItem(ctx context.Context, it core.HomeItem) (string, error) {
	it.ID = newID()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO home_items (id, room_id, name, price, link, bought, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.RoomID, it.Name, it.Price.String(), it.Link, it.Bought, encodeTime(it.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert home item: %w", err)
	}
	return it.ID, nil
}

func (r *SQLiteRepository) ListHomeItems(ctx context.Context) ([]core.HomeItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, name, price, link, bought, created_at FROM home_items ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list home items: %w", err)
	}
	defer rows.Close()

	var out []core.HomeItem
	for rows.Next() {
		var it core.HomeItem
		var price, created string
		if err := rows.Scan(&it.ID, &it.RoomID, &it.Name, &price, &it.Link, &it.Bought, &created); err != nil {
			return nil, fmt.Errorf("scan home item: %w", err)
		}
		it.Price = decodeDecimal(price)
		it.CreatedAt = decodeTime(created)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ToggleHomeItemBought(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE home_items SET bought = NOT bought WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("toggle home item: %w", err)
	}
	if err := affected(res, "home item", id); err != nil {
		return false, err
	}
	var bought bool
	if err := r.db.QueryRowContext(ctx, `SELECT bought FROM home_items WHERE id = ?`, id).Scan(&bought); err != nil {
		return false, notFound("home item", id, err)
	}
	return bought, nil
}

func (r *SQLiteRepository) DeleteHomeItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM home_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete home item: %w", err)
	}
	return affected(res, "home item", id)
}

func (r *SQLiteRepository) CreateProperty(ctx context.Context, p core.Property) (string, error) {
	p.ID = newID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO properties (id, title, address, price, condo_fee, rooms, bathrooms,
			has_garage, has_pool, is_penthouse, for_rent, link, visited, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Address, p.Price.String(), p.CondoFee.String(), p.Rooms, p.Bathrooms,
		p.HasGarage, p.HasPool, p.IsPenthouse, p.ForRent, p.Link, p.Visited, encodeTime(p.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert property: %w", err)
	}
	return p.ID, nil
}

func (r *SQLiteRepository) ListProperties(ctx context.Context) ([]core.Property, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, address, price, condo_fee, rooms, bathrooms,
			has_garage, has_pool, is_penthouse, for_rent, link, visited, created_at
		FROM properties ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []core.Property
	for rows.Next() {
		var p core.Property
		var price, condoFee, created string
		if err := rows.Scan(&p.ID, &p.Title, &p.Address, &price, &condoFee, &p.Rooms, &p.Bathrooms,
			&p.HasGarage, &p.HasPool, &p.IsPenthouse, &p.ForRent, &p.Link, &p.Visited, &created); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		p.Price = decodeDecimal(price)
		p.CondoFee = decodeDecimal(condoFee)
		p.CreatedAt = decodeTime(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateProperty(ctx context.Context, p core.Property) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE properties SET title = ?, address = ?, price = ?, condo_fee = ?, rooms = ?,
			bathrooms = ?, has_garage = ?, has_pool = ?, is_penthouse = ?, for_rent = ?,
			link = ?, visited = ?
		WHERE id = ?`,
		p.Title, p.Address, p.Price.String(), p.CondoFee.String(), p.Rooms,
		p.Bathrooms, p.HasGarage, p.HasPool, p.IsPenthouse, p.ForRent,
		p.Link, p.Visited, p.ID)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return affected(res, "property", p.ID)
}

func (r *SQLiteRepository) DeleteProperty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return affected(res, "property", id)
}

func encodeComments(comments []core.TravelComment) (string, error) {
	if comments == nil {
		comments = []core.TravelComment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return "", fmt.Errorf("encode comments: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepository) CreateTravel(ctx context.Context, t core.Travel) (string, error) {
	t.ID = newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	comments, err := encodeComments(t.Comments)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO travels (id, title, destination, budget, start_date, end_date, visited, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Destination, t.Budget.String(), encodeTime(t.StartDate),
		encodeTime(t.EndDate), t.Visited, comments, encodeTime(t.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert travel: %w", err)
	}
	return t.ID, nil
}

func (r *SQLiteRepository) ListTravels(ctx context.Context) ([]core.Travel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, destination, budget, start_date, end_date, visited, comments, created_at
		FROM travels ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list travels: %w", err)
	}
	defer rows.Close()

	var out []core.Travel
	for rows.Next() {
		var t core.Travel
		var budget, start, end, comments, created string
		if err := rows.Scan(&t.ID, &t.Title, &t.Destination, &budget, &start, &end,
			&t.Visited, &comments, &created); err != nil {
			return nil, fmt.Errorf("scan travel: %w", err)
		}
		t.Budget = decodeDecimal(budget)
		t.StartDate = decodeTime(start)
		t.EndDate = decodeTime(end)
		t.CreatedAt = decodeTime(created)
		if err := json.Unmarshal([]byte(comments), &t.Comments); err != nil {
			return nil, fmt.Errorf("decode comments: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTravel(ctx context.Context, t core.Travel) error {
	comments, err := encodeComments(t.Comments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE travels SET title = ?, destination = ?, budget = ?, start_date = ?,
			end_date = ?, visited = ?, comments = ?
		WHERE id = ?`,
		t.Title, t.Destination, t.Budget.String(), encodeTime(t.StartDate),
		encodeTime(t.EndDate), t.Visited, comments, t.ID)
	if err != nil {
		return fmt.Errorf("update travel: %w", err)
	}
	return affected(res, "travel", t.ID)
}

func (r *SQLiteRepository) DeleteTravel(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM travels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete travel: %w", err)
	}
	return affected(res, "travel", id)
}
