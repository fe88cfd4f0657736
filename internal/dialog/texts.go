package dialog

const (
	menuText = "What would you like to do?"
	helpText = "I archive photographs to the shared disk.\n\n" +
		"*Save*: pick a folder, send a photo, give it a name.\n" +
		"*Find*: pick a folder and type part of a file name.\n\n" +
		"/start shows the menu, /cancel aborts the current action."

	askPhotoText = "Send me the photograph to save in \"%s\"."
	askNameText  = "Got it. What name should the file have?"
	askQueryText = "What name should I look for in \"%s\"?"

	needPhotoText = "I need a photograph here. Send one, or /cancel."
	needNameText  = "I need a plain text name here. Type one, or /cancel."
	needQueryText = "Type part of the file name to search for, or /cancel."

	nameTakenText  = "That name is already taken in today's folder. Try another one."
	badNameText    = "That name cannot be used as a file name. Try another one."
	saveFailedText = "Could not save the photo, please try again later."
	savedText      = "✅ Saved %s to %s."

	searchFailedText = "Search failed, please try again later."
	nothingFoundText = "Nothing found for \"%s\"."
	foundManyText    = "Found %d files, too many to preview:"
	previewFailText  = "⚠️ Could not fetch %s."

	recentUsageText   = "Usage: /recent [YYYY-MM-DD]"
	recentEmptyText   = "No archived files recorded."
	journalFailedText = "Could not read the journal."

	cancelledText     = "Action cancelled."
	nothingCancelText = "Nothing to cancel."
	unknownTextText   = "Use /start to choose an action."
	unknownPhotoText  = "First pick a folder via /start, then send the photo."
	unknownCatText    = "That folder is not configured anymore. Use /start."
)
