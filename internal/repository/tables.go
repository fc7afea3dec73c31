package repository

import (
	"fmt"
	"strings"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// baseColumns are shared by every table and always come first.
var baseColumns = []string{"id", "created_at", "updated_at"}

// reference is a foreign key from column to target.targetColumn.
type reference struct {
	column       string
	target       model.Kind
	targetColumn string
}

// table describes how one entity kind is stored.
//
// Column names match the entity's JSON field names, so patch keys map
// directly onto columns.
type table struct {
	kind    model.Kind
	name    string
	columns []string
	values  func(model.Entity) []any
	scan    pgx.RowToFunc[model.Entity]

	references []reference
	unique     [][]string

	// immutable tables reject update and delete.
	immutable bool
}

var tables = [...]*table{
	model.KindCountry: {
		kind:    model.KindCountry,
		name:    "countries",
		columns: []string{"name", "code"},
		values: func(e model.Entity) []any {
			c := e.(*model.Country)
			return []any{c.Name, c.Code}
		},
		scan:      scanAs[model.Country],
		unique:    [][]string{{"code"}},
		immutable: true,
	},
	model.KindCity: {
		kind:    model.KindCity,
		name:    "cities",
		columns: []string{"name", "country_code"},
		values: func(e model.Entity) []any {
			c := e.(*model.City)
			return []any{c.Name, c.CountryCode}
		},
		scan: scanAs[model.City],
		references: []reference{
			{column: "country_code", target: model.KindCountry, targetColumn: "code"},
		},
	},
	model.KindUser: {
		kind:    model.KindUser,
		name:    "users",
		columns: []string{"email", "first_name", "last_name", "password_hash", "is_admin"},
		values: func(e model.Entity) []any {
			u := e.(*model.User)
			return []any{u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsAdmin}
		},
		scan:   scanAs[model.User],
		unique: [][]string{{"email"}},
	},
	model.KindPlace: {
		kind: model.KindPlace,
		name: "places",
		columns: []string{
			"name", "description", "address", "latitude", "longitude", "host_id", "city_id",
			"price_per_night", "number_of_rooms", "number_of_bathrooms", "max_guests",
		},
		values: func(e model.Entity) []any {
			p := e.(*model.Place)
			return []any{
				p.Name, p.Description, p.Address, p.Latitude, p.Longitude, p.HostID, p.CityID,
				p.PricePerNight, p.NumberOfRooms, p.NumberOfBathrooms, p.MaxGuests,
			}
		},
		scan: scanAs[model.Place],
		references: []reference{
			{column: "host_id", target: model.KindUser, targetColumn: "id"},
			{column: "city_id", target: model.KindCity, targetColumn: "id"},
		},
	},
	model.KindAmenity: {
		kind:    model.KindAmenity,
		name:    "amenities",
		columns: []string{"name"},
		values: func(e model.Entity) []any {
			return []any{e.(*model.Amenity).Name}
		},
		scan:   scanAs[model.Amenity],
		unique: [][]string{{"name"}},
	},
	model.KindPlaceAmenity: {
		kind:    model.KindPlaceAmenity,
		name:    "place_amenities",
		columns: []string{"place_id", "amenity_id"},
		values: func(e model.Entity) []any {
			pa := e.(*model.PlaceAmenity)
			return []any{pa.PlaceID, pa.AmenityID}
		},
		scan: scanAs[model.PlaceAmenity],
		references: []reference{
			{column: "place_id", target: model.KindPlace, targetColumn: "id"},
			{column: "amenity_id", target: model.KindAmenity, targetColumn: "id"},
		},
		unique: [][]string{{"place_id", "amenity_id"}},
	},
	model.KindReview: {
		kind:    model.KindReview,
		name:    "reviews",
		columns: []string{"place_id", "user_id", "comment", "rating"},
		values: func(e model.Entity) []any {
			r := e.(*model.Review)
			return []any{r.PlaceID, r.UserID, r.Comment, r.Rating}
		},
		scan: scanAs[model.Review],
		references: []reference{
			{column: "place_id", target: model.KindPlace, targetColumn: "id"},
			{column: "user_id", target: model.KindUser, targetColumn: "id"},
		},
	},
}

func tableFor(kind model.Kind) (*table, error) {
	if !kind.Valid() {
		return nil, errs.NewFieldValidationError("kind", fmt.Sprintf("unknown entity kind %s", kind))
	}
	return tables[kind], nil
}

// scanAs reads a row into a *T by column name and normalizes timestamps
// to UTC.
func scanAs[T any, PT interface {
	*T
	model.Entity
}](row pgx.CollectableRow) (model.Entity, error) {
	v, err := pgx.RowToAddrOfStructByName[T](row)
	if err != nil {
		return nil, err
	}

	e := PT(v)
	meta := e.Meta()
	meta.CreatedAt = meta.CreatedAt.UTC()
	meta.UpdatedAt = meta.UpdatedAt.UTC()
	return e, nil
}

// dependent is a table column that references rows of another kind.
type dependent struct {
	kind   model.Kind
	column string
}

// dependentsOf lists every reference pointing at kind's id column.
func dependentsOf(kind model.Kind) []dependent {
	var out []dependent
	for _, k := range model.Kinds() {
		for _, ref := range tables[k].references {
			if ref.target == kind && ref.targetColumn == "id" {
				out = append(out, dependent{kind: k, column: ref.column})
			}
		}
	}
	return out
}

// value returns the entity's value for a data column.
func (t *table) value(e model.Entity, column string) (any, bool) {
	for i, c := range t.columns {
		if c == column {
			return t.values(e)[i], true
		}
	}
	return nil, false
}

func (t *table) selectList() string {
	return strings.Join(append(append([]string{}, baseColumns...), t.columns...), ", ")
}

func (t *table) selectAllSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, id", t.selectList(), t.name)
}

func (t *table) selectByIDSQL(forUpdate bool) string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", t.selectList(), t.name)
	if forUpdate {
		sql += " FOR UPDATE"
	}
	return sql
}

func (t *table) insertSQL() string {
	n := len(baseColumns) + len(t.columns)
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, t.selectList(), strings.Join(placeholders, ", "))
}

func (t *table) insertArgs(e model.Entity) []any {
	meta := e.Meta()
	return append([]any{meta.ID, meta.CreatedAt, meta.UpdatedAt}, t.values(e)...)
}

// updateSQL rewrites every data column plus updated_at; id is the last
// parameter.
func (t *table) updateSQL() string {
	sets := make([]string, 0, len(t.columns)+1)
	for i, c := range t.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+1))
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(t.columns)+1))
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", t.name, strings.Join(sets, ", "), len(t.columns)+2)
}

func (t *table) updateArgs(e model.Entity) []any {
	meta := e.Meta()
	return append(t.values(e), meta.UpdatedAt, meta.ID)
}

func (t *table) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name)
}

// existsSQL checks for a row matching every column; when exclude is set
// the row with that id is ignored.
func (t *table) existsSQL(columns []string, exclude bool) string {
	conds := make([]string, len(columns), len(columns)+1)
	for i, c := range columns {
		conds[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	if exclude {
		conds = append(conds, fmt.Sprintf("id <> $%d", len(columns)+1))
	}
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", t.name, strings.Join(conds, " AND "))
}

// displayValue renders a column value for error messages.
func displayValue(v any) any {
	if id, ok := v.(uuid.UUID); ok {
		return id.String()
	}
	return v
}
