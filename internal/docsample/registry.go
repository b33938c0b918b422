package docsample

import "slices"

// registry is append-only: existing rows are documentation that users
// may already rely on.
var registry = []Category{
	{Name: "Dates", Fixture: "dates", Samples: []Sample{
		{`task.due.format("YYYY-MM-DD dddd")`, []string{
			"Like `group by due`, except it does not say `Due`.",
		}},
		{`task.due.format("YYYY-MM-DD dddd", "no due date")`, []string{
			"Like the previous example, but tasks without a due date are grouped under `no due date`.",
		}},
		{`task.due.formatAsDate()`, []string{
			"Group by the due date as YYYY-MM-DD, with no heading when there is no due date.",
		}},
		{`task.due.formatAsDateAndTime()`, []string{
			"Group by the due date and time as YYYY-MM-DD HH:mm.",
			"Dates without a time show midnight.",
		}},
		{`task.due.format("YYYY[%%]-MM[%%] MMM", "no due date")`, []string{
			"Group by month, sorted numerically but showing only the month name.",
			"The text between the `%%` markers is hidden when the heading is displayed, but it still controls the sort order.",
		}},
		{`task.due.format("[%%]YYYY-MM[%%] MMM YYYY", "no due date")`, []string{
			"Like the previous example, but the year is displayed too.",
		}},
		{`task.due.format("YYYY-[W]WW")`, []string{
			"Group by the ISO week of the due date.",
		}},
		{`task.due.format("[Q]Q YYYY")`, []string{
			"Group by the calendar quarter of the due date.",
		}},
		{`task.due.format("dddd")`, []string{
			"Group by the day of the week the task is due.",
		}},
		{`task.happens.format("YYYY-MM-DD")`, []string{
			"Group by the earliest of the start, scheduled and due dates.",
		}},
		{`task.due.category.groupText`, []string{
			"Group by whether the due date is overdue, today or in the future.",
			"Undated tasks get no heading.",
		}},
		{`task.due.fromNow.groupText`, []string{
			"Group by how far the due date is from today, such as `3 days ago`.",
		}},
		{`task.scheduled.format("YYYY-MM-DD", "not scheduled")`, []string{
			"Group by the scheduled date, with a `not scheduled` heading for tasks that have none.",
		}},
		{`task.done.format("YYYY-MM")`, []string{
			"Group by the month each task was completed.",
		}},
		{`task.created.moment?.format("YYYY") ?? "no created date"`, []string{
			"Group by the year the task was created.",
			"The optional chain `?.` gives nothing when the date is absent, and `??` supplies the fallback.",
		}},
		{`task.cancelled.format("YYYY-MM-DD", "not cancelled")`, []string{
			"Group by the date the task was cancelled.",
		}},
		{`const day = task.due.moment?.day(); return day === undefined ? "" : (day === 0 || day === 6 ? "Weekend" : "Weekday")`, []string{
			"Group by whether the task is due on a weekend.",
			"Use `const` to name an intermediate value and `return` to give the result.",
		}},
	}},
	{Name: "Tags", Fixture: "tags", Samples: []Sample{
		{`task.tags`, []string{
			"Group by each tag.",
			"A task with several tags appears under every one of them.",
		}},
		{`task.tags.join(", ")`, []string{
			"Group by the task's tags, in the order they were written.",
		}},
		{`task.tags.sort().join(", ")`, []string{
			"Group by all of the task's tags, sorted so that their order does not matter.",
		}},
		{`task.tags.filter(tag => tag.includes("#context/"))`, []string{
			"Group by the context tags only.",
			"Tasks without any `#context/` tag have no heading.",
		}},
		{`task.tags.map(tag => tag.replace("#", ""))`, []string{
			"Group by tags without the leading `#`.",
		}},
		{`task.tags.map(tag => tag.split("/")[0])`, []string{
			"Group by the top-level part of each nested tag.",
		}},
		{`task.tags.length`, []string{
			"Group by the number of tags.",
		}},
		{`task.tags.filter(tag => tag !== "#task")`, []string{
			"Group by every tag except the global filter tag `#task`.",
		}},
		{`task.tags.length === 0 ? "No tags" : "Tagged"`, []string{
			"Separate tasks that have tags from those that do not.",
		}},
	}},
	{Name: "File", Fixture: "file", Samples: []Sample{
		{`task.file.folder`, []string{
			"Group by the folder containing the task's file.",
			"Top-level files are in folder `/`.",
		}},
		{`task.file.root`, []string{
			"Group by the top-level folder of the file.",
		}},
		{`task.file.path`, []string{
			"Group by the full path of the file.",
		}},
		{`task.file.filenameWithoutExtension`, []string{
			"Group by the file name without its extension.",
		}},
		{`task.file.path.replace(task.file.folder, "")`, []string{
			"Group by the file name, including its extension.",
		}},
		{`task.file.folder.slice(0, -1).split("/").at(-1)`, []string{
			"Group by the name of the innermost folder.",
			"Files at the top level have no heading.",
		}},
		{`task.file.filename.includes("2023") ? "Journal" : task.file.filenameWithoutExtension`, []string{
			"Group journal files under one heading and other files by name.",
		}},
	}},
	{Name: "Status", Fixture: "status", Samples: []Sample{
		{`task.status.name`, []string{
			"Group by the status name, such as `Todo` or `In Progress`.",
		}},
		{`task.status.type`, []string{
			"Group by the status type.",
			"The types are `TODO`, `IN_PROGRESS`, `DONE`, `CANCELLED` and `NON_TASK`.",
		}},
		{`"[" + task.status.symbol + "]"`, []string{
			"Group by the status symbol, shown in brackets.",
		}},
		{`task.status.nextSymbol`, []string{
			"Group by the symbol the task moves to when toggled.",
		}},
		{`task.isDone ? "Action Required" : "Nothing To Do"`, []string{
			"Group by whether the task is done.",
			"Use the ternary operator to choose a heading for true (after the `?`) and false (after the `:`) values.",
		}},
		{`isDone ? "Done" : "Open"`, []string{
			"Group by done state using the bare `isDone` name.",
			"Every task field can be used without the `task.` prefix.",
		}},
		{`task.status.type === "NON_TASK" ? "Notes" : task.status.name`, []string{
			"Group non-task lines under `Notes` and everything else by status name.",
		}},
	}},
	{Name: "Priority", Fixture: "priority", Samples: []Sample{
		{`task.priorityName`, []string{
			"Group by the priority name.",
			"Tasks with no priority are grouped under `Normal`.",
		}},
		{`task.priorityNumber`, []string{
			"Group by the priority number, from 0 for the highest to 5 for the lowest.",
		}},
		{`"Priority " + task.priorityNumber + ": " + task.priorityName`, []string{
			"Group by priority number and name together, so the headings sort by importance.",
		}},
		{`task.priorityNumber <= 2 ? "Important" : "Other"`, []string{
			"Group medium and higher priorities together.",
		}},
	}},
	{Name: "Recurrence", Fixture: "recurrence", Samples: []Sample{
		{`task.isRecurring ? "Recurring" : "Non-Recurring"`, []string{
			"Group by whether the task repeats.",
		}},
		{`task.recurrenceRule`, []string{
			"Group by the recurrence rule text.",
			"Tasks that do not repeat have no heading.",
		}},
		{`task.recurrenceRule.replace(" when done", "")`, []string{
			"Group by the recurrence rule, ignoring whether it repeats when done.",
		}},
		{`!task.isRecurring ? "" : task.recurrenceRule.includes("when done") ? "When done" : "Fixed schedule"`, []string{
			"Separate rules that repeat when done from fixed schedules.",
		}},
	}},
	{Name: "Description", Fixture: "description", Samples: []Sample{
		{`task.description`, []string{
			"Group by the description.",
			"This is useful for finding duplicate tasks.",
		}},
		{`task.descriptionWithoutTags`, []string{
			"Group by the description with tags removed.",
		}},
		{`task.description.length > 50 ? "Long" : "Short"`, []string{
			"Group by the length of the description.",
		}},
		{`task.description.split(" ")[0]`, []string{
			"Group by the first word of the description.",
		}},
		{`task.description.match(/[A-Z]+-\d+/)?.[0] ?? ""`, []string{
			"Group by a ticket key such as `JIRA-42` found in the description.",
		}},
		{`/\d/.test(task.description) ? "Has numbers" : "No numbers"`, []string{
			"Group by whether the description contains a digit.",
		}},
		{`task.description.trim().toLowerCase().at(0) ?? ""`, []string{
			"Group by the first letter of the description.",
		}},
	}},
	{Name: "Heading", Fixture: "heading", Samples: []Sample{
		{`task.heading`, []string{
			"Group by the heading the task is under.",
			"Tasks before the first heading have no heading.",
		}},
		{`task.hasHeading ? task.heading : "(No heading)"`, []string{
			"Give tasks without a heading a heading of their own.",
		}},
		{`task.heading?.toUpperCase() ?? ""`, []string{
			"Group by the heading in upper case.",
			"The optional chain `?.` avoids an error when there is no heading.",
		}},
		{`task.file.filenameWithoutExtension + (task.hasHeading ? " > " + task.heading : "")`, []string{
			"Group by file name and heading, like a breadcrumb.",
		}},
	}},
	{Name: "Urgency", Fixture: "urgency", Samples: []Sample{
		{`task.urgency.toFixed(3)`, []string{
			"Group by urgency, shown to three decimal places.",
		}},
		{`Math.floor(task.urgency)`, []string{
			"Group by the whole-number part of the urgency.",
		}},
		{`task.urgency > 10 ? "Urgent" : "Not urgent"`, []string{
			"Split tasks into urgent and not urgent.",
		}},
		{"`${task.urgency.toFixed(1)} points`", []string{
			"Group by urgency using a template literal.",
		}},
	}},
	{Name: "Block link", Fixture: "blocklink", Samples: []Sample{
		{`task.blockLink`, []string{
			"Group by the block link.",
			"Tasks without one have no heading.",
		}},
		{`task.blockLink.replace(" ^", "")`, []string{
			"Group by the block link without the leading caret.",
		}},
		{`task.blockLink ? "Linked" : "Not linked"`, []string{
			"Separate tasks that can be linked to from those that cannot.",
		}},
	}},
	{Name: "Combined", Fixture: FixtureAll, Samples: []Sample{
		{`[task.status.name, task.priorityName]`, []string{
			"Group every task under both its status and its priority.",
		}},
		{`task.file.root + " / " + task.status.name`, []string{
			"Group by top-level folder and status together.",
		}},
		{`task.happens.moment ? task.happens.format("YYYY") : "Someday"`, []string{
			"Group by the year the task happens, or `Someday` when it has no dates.",
		}},
		{`const tag = task.tags.find(t => t.startsWith("#context/")); return tag ?? "No context"`, []string{
			"Group by the first context tag, or `No context` when there is none.",
		}},
	}},
}

// Registry returns the documented samples by category, in documentation
// order. Callers must not modify the returned samples.
func Registry() []Category {
	return slices.Clone(registry)
}
