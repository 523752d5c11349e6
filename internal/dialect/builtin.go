package dialect

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/tordrt/polyseed/internal/schema"
)

// Postgres renders PostGIS statements.
func Postgres() Dialect {
	return &sqlDialect{
		name: PostgresName,
		types: map[schema.ColumnType]string{
			schema.SerialType:    "SERIAL PRIMARY KEY NOT NULL",
			schema.TextType:      "TEXT",
			schema.IntegerType:   "INT",
			schema.TimestampType: "TIMESTAMP",
			schema.GeometryType: fmt.Sprintf("GEOMETRY DEFAULT ST_GeomFromText(%s,%d)",
				quoteStandard(defaultPointWKT()), schema.SRID),
		},
		point: makePoint,
		spatialIndex: func(table string) string {
			return fmt.Sprintf("CREATE INDEX %s ON %s USING gist (%s)",
				schema.SpatialIndexName(table), table, schema.GeometryColumn)
		},
		addColumn:  "ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		dropColumn: "ALTER TABLE %s DROP COLUMN IF EXISTS %s",
		quote:      quoteStandard,
	}
}

// SQLite renders statements for SQLite. The geometry functions are
// registered on the connection by the db package and store EWKT text.
func SQLite() Dialect {
	return &sqlDialect{
		name: SQLiteName,
		types: map[schema.ColumnType]string{
			schema.SerialType:    "INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL",
			schema.TextType:      "TEXT",
			schema.IntegerType:   "INTEGER",
			schema.TimestampType: "TIMESTAMP",
			schema.GeometryType: fmt.Sprintf("GEOMETRY DEFAULT (ST_GeomFromText(%s,%d))",
				quoteStandard(defaultPointWKT()), schema.SRID),
		},
		point: makePoint,
		spatialIndex: func(table string) string {
			return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
				schema.SpatialIndexName(table), table, schema.GeometryColumn)
		},
		addColumn:  "ALTER TABLE %s ADD COLUMN %s %s",
		dropColumn: "ALTER TABLE %s DROP COLUMN %s",
		quote:      quoteStandard,
	}
}

// MySQL renders statements for MySQL 8. Geometry is stored with SRID 4326
// in longitude/latitude axis order.
func MySQL() Dialect {
	return &sqlDialect{
		name: MySQLName,
		types: map[schema.ColumnType]string{
			schema.SerialType:    "INT AUTO_INCREMENT PRIMARY KEY NOT NULL",
			schema.TextType:      "TEXT",
			schema.IntegerType:   "INT",
			schema.TimestampType: "DATETIME",
			schema.GeometryType: fmt.Sprintf("GEOMETRY NOT NULL SRID %d DEFAULT (%s)",
				schema.SRID, mysqlGeometry(defaultPointWKT())),
		},
		point: func(p orb.Point) string {
			return mysqlGeometry(wkt.MarshalString(p))
		},
		spatialIndex: func(table string) string {
			return fmt.Sprintf("CREATE SPATIAL INDEX %s ON %s (%s)",
				schema.SpatialIndexName(table), table, schema.GeometryColumn)
		},
		addColumn:  "ALTER TABLE %s ADD COLUMN %s %s",
		dropColumn: "ALTER TABLE %s DROP COLUMN %s",
		quote:      quoteMySQL,
	}
}

func makePoint(p orb.Point) string {
	return fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s,%s),%d)", coord(p[0]), coord(p[1]), schema.SRID)
}

func mysqlGeometry(text string) string {
	return fmt.Sprintf("ST_GeomFromText(%s, %d, 'axis-order=long-lat')", quoteStandard(text), schema.SRID)
}

// quoteMySQL also escapes backslashes, which MySQL treats as escapes
// inside string literals by default.
func quoteMySQL(s string) string {
	return quoteStandard(strings.ReplaceAll(s, `\`, `\\`))
}
