package widget

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// hostPage renders the document loaded inside the widget iframe. It reads
// applicationId and userId from its own query string and talks to
// /api/widget/*.
func hostPage(theme string) templ.Component {
	if theme != "dark" {
		theme = "light"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, hostPageHTML, templ.EscapeString(theme))
		return err
	})
}

const hostPageHTML = `<!DOCTYPE html>
<html lang="en" class="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>UpVote</title>
<style>
body{margin:0;font-family:system-ui,-apple-system,sans-serif;font-size:14px;background:#fff;color:#18181b}
.dark body{background:#09090b;color:#fafafa}
header{display:flex;align-items:center;justify-content:space-between;padding:16px;border-bottom:1px solid rgba(127,127,127,.2)}
header h1{font-size:16px;margin:0}
nav{display:flex;gap:8px;padding:8px 16px}
nav button,.tag,.vote,form button,header button{border:1px solid rgba(127,127,127,.3);background:transparent;color:inherit;border-radius:10px;padding:6px 10px;cursor:pointer}
nav button.active,.tag.active,.vote.voted{background:#18181b;color:#fff}
.dark nav button.active,.dark .tag.active,.dark .vote.voted{background:#fafafa;color:#09090b}
main{padding:0 16px 16px;overflow-y:auto;height:calc(100vh - 120px)}
form{display:flex;flex-direction:column;gap:8px;margin:12px 0}
input,textarea{font:inherit;color:inherit;background:transparent;border:1px solid rgba(127,127,127,.3);border-radius:10px;padding:8px}
.item{display:flex;gap:12px;padding:12px 0;border-bottom:1px solid rgba(127,127,127,.15)}
.item h3{margin:0 0 4px;font-size:14px}
.item p{margin:0 0 6px;opacity:.8}
.status{font-size:11px;text-transform:uppercase;opacity:.6}
.reply{margin-top:6px;padding:8px;border-radius:8px;background:rgba(127,127,127,.1)}
.error{padding:32px;text-align:center}
</style>
</head>
<body>
<header><h1>Feedback</h1><button type="button" id="close" aria-label="Close">&times;</button></header>
<div id="app">
<nav><button type="button" data-sort="recent" class="active">Recent</button><button type="button" data-sort="upvotes">Top</button></nav>
<main>
<form id="form">
<input name="title" placeholder="What's your idea?" required maxlength="200">
<textarea name="description" placeholder="Add some details..." rows="3"></textarea>
<div id="tags"></div>
<button type="submit">Submit</button>
</form>
<div id="list"></div>
<button type="button" id="more" hidden>Load more</button>
</main>
</div>
<script>
(function () {
  var q = new URLSearchParams(location.search);
  var applicationId = q.get('applicationId');
  var userId = q.get('userId');
  var TAGS = ['Feature', 'Bug', 'Improvement', 'UI/UX', 'Performance'];
  var state = { sort: 'recent', page: 1, hasMore: false, items: [], tags: [] };

  document.getElementById('close').onclick = function () {
    window.parent.postMessage({ type: 'upvote:close' }, '*');
  };

  if (!applicationId || !userId) {
    document.getElementById('app').innerHTML = '<div class="error"><h2>Configuration Error</h2><p>applicationId and userId are required.</p></div>';
    return;
  }

  function esc(s) {
    var d = document.createElement('div');
    d.textContent = s == null ? '' : String(s);
    return d.innerHTML;
  }

  function render() {
    document.getElementById('list').innerHTML = state.items.map(function (f) {
      return '<div class="item"><button type="button" class="vote' + (f.hasVoted ? ' voted' : '') + '" data-id="' + esc(f.id) + '">&#9650; ' + f.voteCount + '</button><div>' +
        '<span class="status">' + esc(f.status) + '</span><h3>' + esc(f.title) + '</h3>' +
        (f.description ? '<p>' + esc(f.description) + '</p>' : '') +
        f.tags.slice(0, 2).map(function (t) { return '<span class="tag">' + esc(t) + '</span> '; }).join('') +
        (f.reply ? '<div class="reply">' + esc(f.reply) + '</div>' : '') +
        '</div></div>';
    }).join('');
    document.getElementById('more').hidden = !state.hasMore;
  }

  function load(page) {
    var params = new URLSearchParams({ applicationId: applicationId, userId: userId, page: page, limit: 10, sort: state.sort });
    return fetch('/api/widget/feedback?' + params).then(function (res) { return res.json(); }).then(function (data) {
      if (!data.feedback) return;
      state.items = page === 1 ? data.feedback : state.items.concat(data.feedback);
      state.page = data.meta.page;
      state.hasMore = data.meta.hasMore;
      render();
    });
  }

  document.getElementById('tags').innerHTML = TAGS.map(function (t) {
    return '<button type="button" class="tag" data-tag="' + esc(t) + '">' + esc(t) + '</button> ';
  }).join('');
  document.getElementById('tags').onclick = function (e) {
    var tag = e.target.getAttribute('data-tag');
    if (!tag) return;
    var i = state.tags.indexOf(tag);
    if (i === -1) state.tags.push(tag); else state.tags.splice(i, 1);
    e.target.classList.toggle('active');
  };

  document.querySelectorAll('nav button').forEach(function (b) {
    b.onclick = function () {
      document.querySelectorAll('nav button').forEach(function (x) { x.classList.remove('active'); });
      b.classList.add('active');
      state.sort = b.getAttribute('data-sort');
      load(1);
    };
  });

  document.getElementById('more').onclick = function () { load(state.page + 1); };

  document.getElementById('form').onsubmit = function (e) {
    e.preventDefault();
    var form = e.target;
    fetch('/api/widget/feedback', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ applicationId: applicationId, userId: userId, title: form.elements['title'].value, description: form.elements['description'].value, tags: state.tags })
    }).then(function (res) {
      return res.json().then(function (data) {
        if (!res.ok) { alert(data.error || 'Failed to submit feedback'); return; }
        form.reset();
        state.tags = [];
        document.querySelectorAll('#tags .tag').forEach(function (x) { x.classList.remove('active'); });
        load(1);
      });
    });
  };

  document.getElementById('list').onclick = function (e) {
    var btn = e.target.closest('.vote');
    if (!btn) return;
    var id = btn.getAttribute('data-id');
    var item = state.items.find(function (f) { return f.id === id; });
    if (!item) return;
    var removing = item.hasVoted;
    fetch('/api/widget/vote', {
      method: removing ? 'DELETE' : 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ applicationId: applicationId, feedbackId: id, userId: userId, voteType: 'UPVOTE' })
    }).then(function (res) {
      if (!res.ok) return;
      return res.json().then(function (data) {
        item.voteCount = data.voteCount;
        item.hasVoted = !removing;
        item.userVoteType = removing ? null : 'UPVOTE';
        render();
      });
    });
  };

  load(1);
})();
</script>
</body>
</html>
`
