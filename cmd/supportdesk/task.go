package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/apiclient"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/taskview"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage support tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with search, filter, sort, and paging",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskDelete,
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Mark a task as cancelled",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCancel,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign <id> <member>...",
	Short: "Replace the members assigned to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskAssign,
}

var (
	taskTitle       string
	taskDescription string
	taskCustomer    string
	taskKeywords    string
	taskStatus      string
	taskMembers     string

	listSearch string
	listStatus string
	listSort   string
	listDesc   bool
	listPage   int
	listSize   int
	listJSON   bool
)

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().StringVar(&taskTitle, "title", "", "Project title")
		c.Flags().StringVar(&taskDescription, "description", "", "Task description")
		c.Flags().StringVar(&taskCustomer, "customer", "", "Customer name")
		c.Flags().StringVar(&taskKeywords, "keywords", "", "Comma-separated keywords")
		c.Flags().StringVar(&taskStatus, "status", "", "Status (pending, in-progress, completed, cancelled)")
		c.Flags().StringVar(&taskMembers, "members", "", "Comma-separated member names")
	}
	taskAddCmd.MarkFlagRequired("title")

	taskListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive search across title, description, and customer")
	taskListCmd.Flags().StringVar(&listStatus, "status", "all", "Status filter")
	taskListCmd.Flags().StringVar(&listSort, "sort", "", "Sort key (projectTitle, description, status, customerName, teamMembers, createdAt)")
	taskListCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	taskListCmd.Flags().IntVarP(&listPage, "page", "p", 1, "Page number")
	taskListCmd.Flags().IntVar(&listSize, "page-size", 0, "Rows per page (default from config)")
	taskListCmd.Flags().BoolVar(&listJSON, "json", false, "Print the view as JSON")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskCancelCmd)
	taskCmd.AddCommand(taskAssignCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	task, err := client().CreateTask(adminapi.TaskRequest{
		ProjectTitle:    taskTitle,
		Description:     taskDescription,
		CustomerName:    taskCustomer,
		Keywords:        splitCSV(taskKeywords),
		Status:          models.TaskStatus(taskStatus),
		AssignedMembers: memberList(splitCSV(taskMembers)),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created task %s\n", task.ID)
	return nil
}

// listOptions are the table controls applied client-side to the fetched tasks.
type listOptions struct {
	Search   string
	Status   string
	Sort     string
	Desc     bool
	Page     int
	PageSize int
}

// buildView runs tasks through the same search, filter, sort, and paging
// pipeline the terminal UI uses.
func buildView(tasks []models.Task, opts listOptions) (taskview.View, error) {
	filter, ok := taskview.ParseStatusFilter(opts.Status)
	if !ok {
		return taskview.View{}, fmt.Errorf("unknown status %q", opts.Status)
	}
	key, ok := taskview.ParseSortKey(opts.Sort)
	if !ok {
		return taskview.View{}, fmt.Errorf("unknown sort key %q", opts.Sort)
	}
	dir := taskview.Asc
	if opts.Desc {
		dir = taskview.Desc
	}

	state := taskview.New(opts.PageSize)
	state.Sync(tasks)
	state.SetQuery(opts.Search)
	state.SetStatusFilter(filter)
	state.SetSort(key, dir)
	state.GoToPage(opts.Page)
	return state.View(), nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	tasks, err := client().ListTasks("")
	if err != nil {
		return err
	}

	size := listSize
	if size <= 0 {
		size = cfg.PageSize
	}
	view, err := buildView(tasks, listOptions{
		Search:   listSearch,
		Status:   listStatus,
		Sort:     listSort,
		Desc:     listDesc,
		Page:     listPage,
		PageSize: size,
	})
	if err != nil {
		return err
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	renderTaskTable(os.Stdout, view)
	return nil
}

// renderTaskTable prints the visible rows and the results footer.
func renderTaskTable(out io.Writer, view taskview.View) {
	if view.Page.Total == 0 {
		fmt.Fprintln(out, "No tasks found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT TITLE\tDESCRIPTION\tSTATUS\tTEAM MEMBERS")
	for _, t := range view.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(t.ID),
			runewidth.Truncate(t.ProjectTitle, 32, "..."),
			runewidth.Truncate(t.Description, 40, "..."),
			taskview.StatusLabel(t.Status),
			taskview.MemberSummary(t.AssignedMembers),
		)
	}
	w.Flush()

	p := view.Page
	fmt.Fprintf(out, "\nShowing %d to %d of %d results", p.Start, p.End, p.Total)
	if p.ShowControls() {
		fmt.Fprintf(out, " (page %d of %d)", p.Page, p.PageCount)
	}
	fmt.Fprintln(out)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	task, err := resolveTask(client(), args[0])
	if err != nil {
		return err
	}
	printTask(os.Stdout, task)
	return nil
}

func printTask(out io.Writer, t *models.Task) {
	fmt.Fprintf(out, "ID:          %s\n", t.ID)
	fmt.Fprintf(out, "Title:       %s\n", t.ProjectTitle)
	fmt.Fprintf(out, "Description: %s\n", t.Description)
	fmt.Fprintf(out, "Customer:    %s\n", t.CustomerName)
	fmt.Fprintf(out, "Status:      %s\n", taskview.StatusLabel(t.Status))
	if len(t.Keywords) > 0 {
		fmt.Fprintf(out, "Keywords:    %s\n", strings.Join(t.Keywords, ", "))
	}
	if len(t.AssignedMembers) > 0 {
		names := make([]string, len(t.AssignedMembers))
		for i, m := range t.AssignedMembers {
			names[i] = m.Name
		}
		fmt.Fprintf(out, "Members:     %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(out, "Created:     %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Updated:     %s\n", t.UpdatedAt.Format("2006-01-02 15:04"))
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	c := client()
	task, err := resolveTask(c, args[0])
	if err != nil {
		return err
	}

	req := adminapi.TaskRequest{
		ProjectTitle:    task.ProjectTitle,
		Description:     task.Description,
		CustomerName:    task.CustomerName,
		Keywords:        task.Keywords,
		Status:          task.Status,
		AssignedMembers: task.AssignedMembers,
	}
	flags := cmd.Flags()
	if flags.Changed("title") {
		req.ProjectTitle = taskTitle
	}
	if flags.Changed("description") {
		req.Description = taskDescription
	}
	if flags.Changed("customer") {
		req.CustomerName = taskCustomer
	}
	if flags.Changed("keywords") {
		req.Keywords = splitCSV(taskKeywords)
	}
	if flags.Changed("status") {
		req.Status = models.TaskStatus(taskStatus)
	}
	if flags.Changed("members") {
		req.AssignedMembers = memberList(splitCSV(taskMembers))
	}

	if _, err := c.UpdateTask(task.ID, req); err != nil {
		return err
	}
	fmt.Printf("Updated task %s\n", task.ID)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	c := client()
	for _, arg := range args {
		task, err := resolveTask(c, arg)
		if err != nil {
			return err
		}
		id := task.ID
		if err := c.DeleteTask(id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		fmt.Printf("Deleted task %s\n", id)
	}
	return nil
}

func runTaskCancel(cmd *cobra.Command, args []string) error {
	c := client()
	target, err := resolveTask(c, args[0])
	if err != nil {
		return err
	}
	task, err := c.CancelTask(target.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Cancelled task %s\n", task.ID)
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	c := client()
	target, err := resolveTask(c, args[0])
	if err != nil {
		return err
	}
	task, err := c.AssignTask(target.ID, memberList(args[1:]))
	if err != nil {
		return err
	}
	fmt.Printf("Assigned %s to task %s\n", taskview.MemberSummary(task.AssignedMembers), task.ID)
	return nil
}

// --- Helpers ---

// resolveTask fetches a task by full ID, falling back to a unique ID prefix
// as printed by "task list".
func resolveTask(c *apiclient.Client, id string) (*models.Task, error) {
	task, err := c.GetTask(id)
	if err == nil || !apiclient.IsNotFound(err) {
		return task, err
	}

	tasks, listErr := c.ListTasks("")
	if listErr != nil {
		return nil, listErr
	}
	var match *models.Task
	for i := range tasks {
		if !strings.HasPrefix(tasks[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("task id %q is ambiguous", id)
		}
		match = &tasks[i]
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func memberList(names []string) []models.Member {
	members := make([]models.Member, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			members = append(members, models.Member{Name: n})
		}
	}
	return members
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
