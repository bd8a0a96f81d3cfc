package database

// The hub's persistent state: which services exist and which script each one
// runs, plus the users and groups that are allowed at them. Nothing in the
// execution core knows this package exists.

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/pryzma-lang/pryzma/text"

	// SQL drivers

	_ "github.com/go-sql-driver/mysql"  // MariaDB & MySQL
	_ "github.com/lib/pq"               // Postgres
	_ "github.com/nakagami/firebirdsql" // Firebird
	_ "github.com/sijms/go-ora"         // Oracle
	_ "modernc.org/sqlite"              // SQLite
)

var drivers = map[string]string{"Firebird SQL": "firebirdsql", "MariaDB": "mysql", "MySQL": "mysql",
	"Oracle": "oracle", "Postgres": "postgres", "SQLite": "sqlite"}

func GetdB(driver, host string, port int, db, user, password string) (*sql.DB, error) {
	driverName, ok := drivers[driver]
	if !ok {
		return nil, errors.New("the hub has no driver called '" + driver + "'")
	}
	var connectionString string
	if driverName == "sqlite" {
		connectionString = db
	} else {
		connectionString = fmt.Sprintf("host=%v port=%v dbname=%v user=%v password=%v sslmode=disable",
			host, port, db, user, password)
	}
	sqlObj, connectionError := sql.Open(driverName, connectionString)
	if connectionError != nil {
		return nil, connectionError
	}
	if err := sqlObj.Ping(); err != nil {
		return nil, err
	}
	return sqlObj, nil
}

func GetSortedDrivers() []string {
	dr := []string{}
	for k := range drivers {
		dr = append(dr, k)
	}
	sort.Strings(dr)
	return dr
}

func GetDriverOptions() string {
	result := "The following SQL drivers are available: \n\n"
	for k, v := range GetSortedDrivers() {
		result = result + fmt.Sprintf("  [%v] %v\n", k, v)
	}
	return result + "\nPick a number"
}

// Initialize creates the hub's tables if they don't exist and makes sure the
// stock groups are there.
func Initialize(db *sql.DB) error {
	query :=
		`CREATE TABLE IF NOT EXISTS _Services (
    serviceName varchar(32),
    scriptFilepath varchar(255),
PRIMARY KEY (serviceName));

CREATE TABLE IF NOT EXISTS _Users (
    username varchar(32),
    password varchar(60),
    email varchar(60),
    serviceName varchar(32),
PRIMARY KEY (username));

CREATE TABLE IF NOT EXISTS _Groups (
    groupName varchar(32),
PRIMARY KEY (groupName));

CREATE TABLE IF NOT EXISTS _GroupMemberships (
    username varchar(32) REFERENCES _Users ON DELETE CASCADE,
    groupName varchar(32) REFERENCES _Groups ON DELETE CASCADE,
    owner BOOLEAN DEFAULT FALSE,
PRIMARY KEY (username, groupName));

CREATE TABLE IF NOT EXISTS _GroupServices (
    groupName varchar(32) REFERENCES _Groups ON DELETE CASCADE,
    serviceName varchar(32),
PRIMARY KEY (groupName, serviceName));`
	if _, err := db.Exec(query); err != nil {
		return err
	}
	for _, group := range []string{"Admin", "Users", "Guests"} {
		if err := AddGroup(db, group); err != nil {
			return err
		}
	}
	return nil
}

// StoreService records which script a named service runs, overwriting any
// previous record of the name.
func StoreService(db *sql.DB, serviceName, scriptFilepath string) error {
	if err := ForgetService(db, serviceName); err != nil {
		return err
	}
	query :=
		`INSERT INTO _Services(serviceName, scriptFilepath)
	VALUES ($1, $2)`
	_, err := db.Exec(query, serviceName, scriptFilepath)
	return err
}

func GetService(db *sql.DB, serviceName string) (string, error) {
	row := db.QueryRow("SELECT scriptFilepath FROM _Services WHERE serviceName = $1", serviceName)
	var scriptFilepath string
	if err := row.Scan(&scriptFilepath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errors.New("the hub has no service called " + text.Emph(serviceName))
		}
		return "", err
	}
	return scriptFilepath, nil
}

func ListServices(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT serviceName, scriptFilepath FROM _Services")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	services := map[string]string{}
	for rows.Next() {
		var name, scriptFilepath string
		if err := rows.Scan(&name, &scriptFilepath); err != nil {
			return nil, err
		}
		services[name] = scriptFilepath
	}
	return services, rows.Err()
}

func ForgetService(db *sql.DB, serviceName string) error {
	_, err := db.Exec("DELETE FROM _Services WHERE serviceName = $1", serviceName)
	return err
}

func AddAdmin(db *sql.DB, username, email, password string) error {
	if err := AddUser(db, username, email, password, ""); err != nil {
		return err
	}
	for _, group := range []string{"Admin", "Users", "Guests"} {
		if err := AddUserToGroup(db, username, group, true); err != nil {
			return err
		}
	}
	return nil
}

func AddUser(db *sql.DB, username, email, password, serviceName string) error {
	query :=
		`INSERT INTO _Users(username, password, email, serviceName)
	VALUES ($1, $2, $3, $4)`
	_, err := db.Exec(query, username, encrypt(password), email, serviceName)
	return err
}

func AddGroup(db *sql.DB, groupName string) error {
	count := 0
	row := db.QueryRow("SELECT COUNT (*) FROM _Groups WHERE groupName = $1", groupName)
	if err := row.Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := db.Exec("INSERT INTO _Groups(groupName) VALUES ($1)", groupName)
	return err
}

func AddUserToGroup(db *sql.DB, username, groupName string, owner bool) error {
	query :=
		`INSERT INTO _GroupMemberships(username, groupName, owner)
	VALUES ($1, $2, $3)`
	_, err := db.Exec(query, username, groupName, owner)
	return err
}

func RemoveUserFromGroup(db *sql.DB, username, groupName string) error {
	query :=
		`DELETE FROM _GroupMemberships WHERE username = $1 AND groupName = $2`
	_, err := db.Exec(query, username, groupName)
	return err
}

func LetGroupUseService(db *sql.DB, groupName, serviceName string) error {
	query :=
		`INSERT INTO _GroupServices(groupName, serviceName)
	VALUES ($1, $2)`
	_, err := db.Exec(query, groupName, serviceName)
	return err
}

func UnLetGroupUseService(db *sql.DB, groupName, serviceName string) error {
	query :=
		`DELETE FROM _GroupServices WHERE groupName = $1 AND serviceName = $2`
	_, err := db.Exec(query, groupName, serviceName)
	return err
}

func IsUserAdmin(db *sql.DB, username string) (bool, error) {
	return IsUserInGroup(db, username, "Admin")
}

func IsUserInGroup(db *sql.DB, username, groupName string) (bool, error) {
	var count int
	row := db.QueryRow("SELECT COUNT (*) FROM _GroupMemberships WHERE username = $1 AND groupName = $2",
		username, groupName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count == 1, nil
}

func DoesUserHaveAccess(db *sql.DB, username, serviceName string) (bool, error) {
	if serviceName == "" {
		return true, nil
	}
	var count int
	row := db.QueryRow(
		`SELECT COUNT (*) FROM _GroupMemberships
INNER JOIN _GroupServices
USING (groupName)
WHERE _GroupMemberships.username = $1 AND _GroupServices.serviceName = $2`,
		username, serviceName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count >= 1, nil
}

// ValidateUser checks the password and returns the name of the service the
// user was last at.
func ValidateUser(db *sql.DB, username, password string) (string, error) {
	rows, err := db.Query("SELECT password, serviceName FROM _Users WHERE username = $1", username)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	for rows.Next() {
		var hash, serviceName string
		if err := rows.Scan(&hash, &serviceName); err != nil {
			return "", err
		}
		if err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			return "", errors.New("the hub doesn't recognize that combination of username and password")
		}
		return serviceName, nil
	}
	// The case where there are no rows.
	return "", errors.New("the hub doesn't recognize that combination of username and password")
}

func UpdateUserService(db *sql.DB, username, serviceName string) error {
	query :=
		`UPDATE _Users
SET serviceName = $2
WHERE username = $1`
	_, err := db.Exec(query, username, serviceName)
	return err
}

func encrypt(s string) string {
	result, _ := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	return string(result)
}
