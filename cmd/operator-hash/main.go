// Command operator-hash prints a bcrypt hash for OPERATOR_PASSWORD_HASH.
//
//	operator-hash <password>
//	echo -n <password> | operator-hash
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/octobees/venue-finder/internal/auth"
)

func main() {
	password, err := readPassword(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "read password:", err)
		os.Exit(2)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
