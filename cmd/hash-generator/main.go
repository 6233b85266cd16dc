// Package main prints bcrypt hashes for passwords given as arguments or, with
// no arguments, one per line on stdin. The output can be pasted into the
// users table when provisioning accounts by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost factor")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		var err error
		passwords, err = readLines(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading passwords: %v\n", err)
			os.Exit(1)
		}
	}

	if failed := hashAll(os.Stdout, auth.NewBcryptVerifier(*cost), passwords); failed > 0 {
		os.Exit(1)
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// hashAll writes a hash for each password and returns how many failed.
func hashAll(w io.Writer, hasher auth.PasswordVerifier, passwords []string) int {
	failed := 0
	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(w, "Error generating hash for %q: %v\n\n", password, err)
			failed++
			continue
		}
		cost, _ := bcrypt.Cost([]byte(hash))
		fmt.Fprintf(w, "Password: %s\nHash: %s\nCost: %d\n\n", password, hash, cost)
	}
	return failed
}
