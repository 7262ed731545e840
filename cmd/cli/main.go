package main

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	command, rest := args[0], args[1:]
	switch command {
	case "auth":
		return handleAuth(rest, out)
	case "blog":
		return handleBlog(rest, out)
	case "help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func handleAuth(args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: blogctl auth <signup|login|logout|who>")
		return nil
	}

	client := newAPIClient(getAPIURL(), "")
	switch args[0] {
	case "signup":
		return signupUser(client, args[1:], out)
	case "login":
		return loginUser(client, args[1:], out)
	case "logout":
		if err := os.Remove(tokenFile()); err != nil && !os.IsNotExist(err) {
			return err
		}
		fmt.Fprintln(out, "✓ Logged out")
		return nil
	case "who":
		token := loadToken()
		if token == "" {
			fmt.Fprintln(out, "Not logged in")
			return nil
		}
		fmt.Fprintf(out, "✓ Logged in (token: %s...)\n", token[:min(len(token), 20)])
		return nil
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func handleBlog(args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: blogctl blog <list|get|create|update|publish|delete|mine>")
		return nil
	}

	client := newAPIClient(getAPIURL(), loadToken())
	switch args[0] {
	case "list":
		return listBlogs(client, args[1:], out)
	case "mine":
		return myBlogs(client, args[1:], out)
	case "get":
		return getBlog(client, args[1:], out)
	case "create":
		return createBlog(client, args[1:], out)
	case "update":
		return updateBlog(client, args[1:], out)
	case "publish":
		id, err := blogID("publish", args[1:])
		if err != nil {
			return err
		}
		b, err := client.PublishBlog(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Published: %s\n", b.ID)
		return nil
	case "delete":
		id, err := blogID("delete", args[1:])
		if err != nil {
			return err
		}
		if err := client.DeleteBlog(id); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Deleted: %s\n", id)
		return nil
	default:
		return fmt.Errorf("unknown blog command: %s", args[0])
	}
}

// Auth commands
func signupUser(client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(out)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	bio := fs.String("bio", "", "short bio (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *first == "" || *last == "" || *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("first, last, email and password are required")
	}

	res, err := client.Signup(*first, *last, *email, *password, *bio)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	if err := saveToken(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ User registered: %s\n", res.User.Email)
	return nil
}

func loginUser(client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	res, err := client.Login(*email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := saveToken(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Logged in as: %s\n", res.User.Email)
	return nil
}

// Blog commands
func listBlogs(client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	q := fs.String("q", "", "search title, description and body")
	tags := fs.String("tags", "", "comma-separated tags")
	author := fs.String("author", "", "author first or last name")
	sortBy := fs.String("sort", "", "e.g. -read_count,reading_time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := url.Values{}
	setInt(query, "page", *page)
	setInt(query, "limit", *limit)
	setString(query, "q", *q)
	setString(query, "tags", *tags)
	setString(query, "author", *author)
	setString(query, "sort", *sortBy)

	res, err := client.ListBlogs(query)
	if err != nil {
		return err
	}
	printBlogs(out, res)
	return nil
}

func myBlogs(client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	fs.SetOutput(out)
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	state := fs.String("state", "", "draft or published")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := url.Values{}
	setInt(query, "page", *page)
	setInt(query, "limit", *limit)
	setString(query, "state", *state)

	res, err := client.MyBlogs(query)
	if err != nil {
		return err
	}
	printBlogs(out, res)
	return nil
}

func getBlog(client *apiClient, args []string, out io.Writer) error {
	id, err := blogID("get", args)
	if err != nil {
		return err
	}
	b, err := client.GetBlog(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", b.Title)
	if b.Description != "" {
		fmt.Fprintf(out, "%s\n", b.Description)
	}
	fmt.Fprintf(out, "by %s | %d min read | %d reads | %s\n", b.AuthorName(), b.ReadingTime, b.ReadCount, strings.Join(b.Tags, ", "))
	fmt.Fprintf(out, "\n%s\n", b.Body)
	return nil
}

func createBlog(client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(out)
	title := fs.String("title", "", "blog title")
	description := fs.String("description", "", "short description")
	body := fs.String("body", "", "blog body")
	bodyFile := fs.String("body-file", "", "read the body from a file")
	tags := fs.String("tags", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *bodyFile != "" {
		data, err := os.ReadFile(*bodyFile)
		if err != nil {
			return err
		}
		*body = string(data)
	}
	if *title == "" || *body == "" {
		fs.PrintDefaults()
		return fmt.Errorf("title and body are required")
	}

	fields := map[string]any{"title": *title, "body": *body, "description": *description}
	if *tags != "" {
		fields["tags"] = *tags
	}

	b, err := client.CreateBlog(fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Draft created: %s (%d min read)\n", b.ID, b.ReadingTime)
	return nil
}

func updateBlog(client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.String("title", "", "new title")
	fs.String("description", "", "new description")
	fs.String("body", "", "new body")
	fs.String("tags", "", "comma-separated tags")
	fs.String("state", "", "draft or published")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := blogID("update", fs.Args())
	if err != nil {
		return err
	}

	// only flags given on the command line are sent
	fields := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		fields[f.Name] = f.Value.String()
	})
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update")
	}

	b, err := client.UpdateBlog(id, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Updated: %s\n", b.ID)
	return nil
}

// Helper functions
func blogID(cmd string, args []string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", fmt.Errorf("usage: blogctl blog %s <blog-id>", cmd)
	}
	return args[0], nil
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func printBlogs(out io.Writer, res *blogPage) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATE\tAUTHOR\tREADS\tMINUTES\tCREATED")
	for _, b := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			b.ID, b.Title, b.State, b.AuthorName(), b.ReadCount, b.ReadingTime, b.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
	fmt.Fprintf(out, "page %d, %d of %d\n", res.Page, len(res.Data), res.Total)
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `Blogging API CLI

Usage:
  blogctl <command> [options]

Commands:
  auth   User authentication (signup, login, logout, who)
  blog   Blog operations (list, get, create, update, publish, delete, mine)
  help   Show this help message

Environment Variables:
  BLOGGINGAPI_API         API endpoint (default: http://localhost:5000)
  BLOGGINGAPI_TOKEN_FILE  Token location (default: ~/.bloggingapi/token)

Examples:
  blogctl auth signup -first Jane -last Doe -email jane@example.com -password pass
  blogctl auth login -email jane@example.com -password pass
  blogctl blog create -title "Hello" -body-file post.md -tags go,web
  blogctl blog publish <blog-id>
  blogctl blog list -tags go -sort -read_count
`)
}
