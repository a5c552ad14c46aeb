package core

// Event names published after successful mutations.
const (
	EventCollectionCreated   = "collection.created"
	EventCollectionUpdated   = "collection.updated"
	EventCollectionDeleted   = "collection.deleted"
	EventFieldAdded          = "field.added"
	EventFieldUpdated        = "field.updated"
	EventFieldRemoved        = "field.removed"
	EventRelationshipAdded   = "relationship.added"
	EventRelationshipRemoved = "relationship.removed"
)
