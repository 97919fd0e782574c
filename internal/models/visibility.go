package models

// OwnedBy reports whether userID owns the item. The zero ID never owns anything.
func (i *AudioItem) OwnedBy(userID uint) bool {
	return userID != 0 && i.UserID == userID
}

// VisibleTo is the single read predicate for items: owners see everything,
// everyone else sees Public items only.
func (i *AudioItem) VisibleTo(viewerID uint) bool {
	return i.OwnedBy(viewerID) || i.Privacy == PrivacyPublic
}

// CollectionVisibleTo reports whether viewerID may browse owner's collection
// at all. Item-level privacy still applies on top of it.
func CollectionVisibleTo(owner *User, viewerID uint) bool {
	if owner == nil {
		return false
	}
	return owner.ID == viewerID || owner.IsCollectionPublic
}

// OwnedBy reports whether userID owns the find.
func (f *WildFind) OwnedBy(userID uint) bool {
	return userID != 0 && f.UserID == userID
}
