package dropbox

// FolderRequest accepts `folder` as an alias of `path`, as the site's old
// scripts still send it.
type FolderRequest struct {
	Path   string `form:"path"`
	Folder string `form:"folder"`
	Count  int    `form:"count" binding:"gte=0"`
}

func (r *FolderRequest) folder() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Folder
}

type FileRequest struct {
	Path string `form:"path"`
	File string `form:"file"`
}

func (r *FileRequest) file() string {
	if r.Path != "" {
		return r.Path
	}
	return r.File
}
